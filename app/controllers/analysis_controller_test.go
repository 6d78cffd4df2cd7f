package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

func TestAnalysisHandlersUnknownSession(t *testing.T) {
	controllerTestDB(t)

	app := newControllerApp(usercontext.UserContext{UserID: 1, IsLoggedIn: true})
	app.Get("/api/sessions/:id/analysis", HandleGetAnalysis)
	app.Post("/api/sessions/:id/analyze", HandleAnalyzeSession)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sessions/sess_inconnue/analysis"},
		{http.MethodPost, "/api/sessions/sess_inconnue/analyze"},
	} {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		require.NoError(t, err, tc.path)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, tc.path)

		body := decodeJSONBody(t, resp)
		assert.Equal(t, "not_found", body["error"], tc.path)
	}
}

func TestHandleGetAnalysisForeignSession(t *testing.T) {
	db := controllerTestDB(t)

	session := &models.ScrapeSession{
		PublicID:    models.NewSessionPublicID(),
		UserID:      42,
		ServiceType: models.SERVICE_MARKETPLACE,
		TargetURL:   "https://www.facebook.com/marketplace/paris",
		Status:      models.SESSION_STATUS_FINISHED,
		IsPaid:      true,
	}
	require.NoError(t, db.Create(session).Error)

	app := newControllerApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Get("/api/sessions/:id/analysis", HandleGetAnalysis)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.PublicID+"/analysis", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHandleAnalyzeSessionNotReady(t *testing.T) {
	db := controllerTestDB(t)

	session := &models.ScrapeSession{
		PublicID:    models.NewSessionPublicID(),
		UserID:      7,
		ServiceType: models.SERVICE_MARKETPLACE,
		TargetURL:   "https://www.facebook.com/marketplace/lyon",
		Status:      models.SESSION_STATUS_PENDING,
	}
	require.NoError(t, db.Create(session).Error)

	app := newControllerApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Post("/api/sessions/:id/analyze", HandleAnalyzeSession)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.PublicID+"/analyze", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, "session_not_ready", body["error"])
}

func TestHandleGetAnalysisOwnedEmpty(t *testing.T) {
	db := controllerTestDB(t)

	session := &models.ScrapeSession{
		PublicID:    models.NewSessionPublicID(),
		UserID:      7,
		ServiceType: models.SERVICE_MARKETPLACE,
		TargetURL:   "https://www.facebook.com/marketplace/nantes",
		Status:      models.SESSION_STATUS_FINISHED,
		IsPaid:      true,
	}
	require.NoError(t, db.Create(session).Error)

	app := newControllerApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Get("/api/sessions/:id/analysis", HandleGetAnalysis)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.PublicID+"/analysis", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, session.PublicID, body["session_id"])
	runs, ok := body["runs"].([]any)
	require.True(t, ok)
	assert.Empty(t, runs)
}
