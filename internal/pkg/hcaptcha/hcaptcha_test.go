package hcaptcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifyServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/siteverify", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifySuccess(t *testing.T) {
	var gotSecret, gotResponse string
	srv := newVerifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotSecret = r.FormValue("secret")
		gotResponse = r.FormValue("response")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(verifyResponse{Success: true, Hostname: "example.org"})
	})

	client := NewClient(srv.URL, "secret-key")
	ok, err := client.Verify(context.Background(), "challenge-token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret-key", gotSecret)
	assert.Equal(t, "challenge-token", gotResponse)
}

func TestVerifyRejected(t *testing.T) {
	srv := newVerifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(verifyResponse{Success: false, ErrorCodes: []string{"invalid-input-response"}})
	})

	client := NewClient(srv.URL, "secret-key")
	ok, err := client.Verify(context.Background(), "bad-token")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-input-response")
}

func TestVerifyAPIError(t *testing.T) {
	srv := newVerifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := NewClient(srv.URL, "secret-key")
	ok, err := client.Verify(context.Background(), "challenge-token")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestVerifyMissingInputs(t *testing.T) {
	client := NewClient("https://api.hcaptcha.com", "secret-key")
	ok, err := client.Verify(context.Background(), "")
	assert.False(t, ok)
	assert.Error(t, err)

	client = NewClient("https://api.hcaptcha.com", "")
	ok, err = client.Verify(context.Background(), "challenge-token")
	assert.False(t, ok)
	assert.Error(t, err)
}
