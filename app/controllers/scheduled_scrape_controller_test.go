package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/usercontext"
)

var (
	testDBOnce sync.Once
	testDB     *gorm.DB
	testDBErr  error
)

// controllerTestDB opens one shared in-memory database for the controller
// tests and binds the global repository factory to it.
func controllerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			testDBErr = err
			return
		}
		if err := db.AutoMigrate(
			&models.ScrapeSession{},
			&models.AIUsageLog{},
			&models.ScheduledScrape{},
			&models.ScrapeExecution{},
			&models.DetectedChange{},
		); err != nil {
			testDBErr = err
			return
		}
		repository.InitializeFactory(db)
		testDB = db
	})
	require.NoError(t, testDBErr)
	return testDB
}

// newControllerApp returns a fiber app whose requests carry the given user
// context, the way UserContextMiddleware would set it.
func newControllerApp(user usercontext.UserContext) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", user)
		return c.Next()
	})
	return app
}

func itoaUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func decodeJSONBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHandleGetScheduledScrapeUnknownID(t *testing.T) {
	controllerTestDB(t)

	app := newControllerApp(usercontext.UserContext{UserID: 1, IsLoggedIn: true})
	app.Get("/api/scheduled-scrapes/:id", HandleGetScheduledScrape)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/scheduled-scrapes/999", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, "not_found", body["error"])
}

func TestHandleGetScheduledScrapeInvalidID(t *testing.T) {
	controllerTestDB(t)

	app := newControllerApp(usercontext.UserContext{UserID: 1, IsLoggedIn: true})
	app.Get("/api/scheduled-scrapes/:id", HandleGetScheduledScrape)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/scheduled-scrapes/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScheduledScrapeHandlersRejectForeignConfig(t *testing.T) {
	db := controllerTestDB(t)

	config := &models.ScheduledScrape{
		UserID:      42,
		Name:        "Veille marché",
		TargetURL:   "https://www.facebook.com/marketplace/paris",
		ServiceType: models.SERVICE_MARKETPLACE,
		Frequency:   models.SCHEDULE_FREQ_DAILY,
		IsActive:    true,
	}
	require.NoError(t, db.Create(config).Error)

	app := newControllerApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Get("/api/scheduled-scrapes/:id", HandleGetScheduledScrape)
	app.Patch("/api/scheduled-scrapes/:id", HandleUpdateScheduledScrape)
	app.Delete("/api/scheduled-scrapes/:id", HandleDeleteScheduledScrape)

	target := "/api/scheduled-scrapes/" + itoaUint(config.ID)
	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		resp, err := app.Test(httptest.NewRequest(method, target, nil))
		require.NoError(t, err, method)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, method)

		body := decodeJSONBody(t, resp)
		assert.Equal(t, "not_found", body["error"], method)
	}

	var count int64
	require.NoError(t, db.Model(&models.ScheduledScrape{}).Where("id = ?", config.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "foreign config must survive the delete attempt")
}

func TestHandleGetScheduledScrapeOwned(t *testing.T) {
	db := controllerTestDB(t)

	config := &models.ScheduledScrape{
		UserID:      7,
		Name:        "Suivi hebdo",
		TargetURL:   "https://www.facebook.com/marketplace/lyon",
		ServiceType: models.SERVICE_MARKETPLACE,
		Frequency:   models.SCHEDULE_FREQ_WEEKLY,
		IsActive:    true,
	}
	require.NoError(t, db.Create(config).Error)

	app := newControllerApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Get("/api/scheduled-scrapes/:id", HandleGetScheduledScrape)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/scheduled-scrapes/"+itoaUint(config.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeJSONBody(t, resp)
	assert.Equal(t, "Suivi hebdo", body["name"])
	assert.NotNil(t, body["executions"])
}
