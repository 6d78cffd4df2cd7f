package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signStripePayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeSignatureValid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	secret := "whsec_test"
	header := signStripePayload(payload, secret, time.Now().Unix())

	assert.True(t, VerifyStripeSignature(payload, header, secret, DefaultSignatureTolerance))
}

func TestVerifyStripeSignatureWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := signStripePayload(payload, "whsec_test", time.Now().Unix())

	assert.False(t, VerifyStripeSignature(payload, header, "whsec_other", DefaultSignatureTolerance))
}

func TestVerifyStripeSignatureTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := signStripePayload(payload, "whsec_test", time.Now().Unix())

	assert.False(t, VerifyStripeSignature([]byte(`{"id":"evt_2"}`), header, "whsec_test", DefaultSignatureTolerance))
}

func TestVerifyStripeSignatureExpiredTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	old := time.Now().Add(-10 * time.Minute).Unix()
	header := signStripePayload(payload, "whsec_test", old)

	assert.False(t, VerifyStripeSignature(payload, header, "whsec_test", DefaultSignatureTolerance))
	// zero tolerance disables the age check
	assert.True(t, VerifyStripeSignature(payload, header, "whsec_test", 0))
}

func TestVerifyStripeSignatureRotatedKeys(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	ts := time.Now().Unix()

	macOld := hmac.New(sha256.New, []byte("whsec_old"))
	fmt.Fprintf(macOld, "%d.%s", ts, payload)
	macNew := hmac.New(sha256.New, []byte("whsec_new"))
	fmt.Fprintf(macNew, "%d.%s", ts, payload)

	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts,
		hex.EncodeToString(macOld.Sum(nil)),
		hex.EncodeToString(macNew.Sum(nil)))

	assert.True(t, VerifyStripeSignature(payload, header, "whsec_new", DefaultSignatureTolerance))
	assert.True(t, VerifyStripeSignature(payload, header, "whsec_old", DefaultSignatureTolerance))
}

func TestVerifyStripeSignatureMalformedHeaders(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"

	assert.False(t, VerifyStripeSignature(payload, "", secret, DefaultSignatureTolerance))
	assert.False(t, VerifyStripeSignature(payload, "t=abc,v1=ff", secret, DefaultSignatureTolerance))
	assert.False(t, VerifyStripeSignature(payload, "v1=ff", secret, DefaultSignatureTolerance))
	assert.False(t, VerifyStripeSignature(payload, fmt.Sprintf("t=%d", time.Now().Unix()), secret, DefaultSignatureTolerance))
	assert.False(t, VerifyStripeSignature(payload, signStripePayload(payload, secret, time.Now().Unix()), "", DefaultSignatureTolerance))
}
