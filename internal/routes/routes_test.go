package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"disburse/internal/handlers"
	"disburse/internal/models"
	"disburse/internal/repositories"
	"disburse/internal/repositories/repotest"
	"disburse/internal/scheduler"
	"disburse/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const secret = "routes-secret"

type MockRuns struct {
	mock.Mock
}

func (m *MockRuns) RunOnce(ctx context.Context) (*models.RunReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.RunReport)
	return report, args.Error(1)
}

func (m *MockRuns) LastRunReport(ctx context.Context) (*models.RunReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*models.RunReport)
	return report, args.Error(1)
}

func (m *MockRuns) RunReport(ctx context.Context, id string) (*models.RunReport, error) {
	args := m.Called(ctx, id)
	report, _ := args.Get(0).(*models.RunReport)
	return report, args.Error(1)
}

func setup(t *testing.T) (*fiber.App, *MockRuns, *gorm.DB) {
	db := repotest.NewDB(t)
	runs := new(MockRuns)

	app := fiber.New()
	SetupRoutes(app, Deps{
		JWTSecret: secret,
		Logger:    zerolog.Nop(),
		Health: map[string]handlers.Check{
			"database": func(ctx context.Context) error { return repositories.HealthCheck(ctx, db) },
		},
		Runs:          runs,
		Reports:       runs,
		Merchants:     repositories.NewMerchantRepository(db),
		Disbursements: repositories.NewDisbursementRepository(db),
		Orders:        repositories.NewOrderRepository(db),
	})
	return app, runs, db
}

func do(t *testing.T, app *fiber.App, method, path string, authorized bool) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if authorized {
		tok, err := utils.GenerateOperatorToken(secret, "ops-bot", models.RoleOperator, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	app, _, _ := setup(t)

	resp, body := do(t, app, "GET", "/health", false)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_Degraded(t *testing.T) {
	app := fiber.New()
	SetupRoutes(app, Deps{
		Logger: zerolog.Nop(),
		Health: map[string]handlers.Check{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	resp, body := do(t, app, "GET", "/health", false)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
}

func TestAPI_RequiresToken(t *testing.T) {
	app, runs, _ := setup(t)

	resp, _ := do(t, app, "POST", "/api/runs", false)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	runs.AssertNotCalled(t, "RunOnce", mock.Anything)
}

func TestTriggerRun(t *testing.T) {
	tests := []struct {
		name       string
		report     *models.RunReport
		err        error
		wantStatus int
	}{
		{name: "completed", report: &models.RunReport{ID: "run-1", DisbursementsCreated: 2}, wantStatus: fiber.StatusOK},
		{name: "already running", err: scheduler.ErrRunInProgress, wantStatus: fiber.StatusConflict},
		{name: "failed", err: errors.New("db down"), wantStatus: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, runs, _ := setup(t)
			runs.On("RunOnce", mock.Anything).Return(tt.report, tt.err)

			resp, body := do(t, app, "POST", "/api/runs", true)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.report != nil {
				assert.Equal(t, "run-1", body["id"])
			}
		})
	}
}

func TestLastRun(t *testing.T) {
	app, runs, _ := setup(t)
	runs.On("LastRunReport", mock.Anything).Return(nil, nil).Once()
	runs.On("LastRunReport", mock.Anything).Return(&models.RunReport{ID: "run-9"}, nil).Once()

	resp, _ := do(t, app, "GET", "/api/runs/last", true)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body := do(t, app, "GET", "/api/runs/last", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-9", body["id"])
}

func TestGetRun(t *testing.T) {
	app, runs, _ := setup(t)
	runs.On("RunReport", mock.Anything, "run-9").Return(&models.RunReport{ID: "run-9", MerchantsSeen: 4}, nil)
	runs.On("RunReport", mock.Anything, "run-0").Return(nil, nil)

	resp, body := do(t, app, "GET", "/api/runs/run-9", true)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "run-9", body["id"])
	assert.Equal(t, float64(4), body["merchants_seen"])

	resp, _ = do(t, app, "GET", "/api/runs/run-0", true)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	runs.AssertNotCalled(t, "RunReport", mock.Anything, "last")
}

func TestMerchantDisbursements(t *testing.T) {
	app, _, db := setup(t)
	m := repotest.Merchant(t, db, models.Merchant{Reference: "padberg"})
	for d := 1; d <= 3; d++ {
		require.NoError(t, db.Create(&models.Disbursement{
			MerchantID:  m.ID,
			Reference:   "ref-" + string(rune('a'+d)),
			AmountCents: int64(100 * d),
			DisbursedOn: time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC),
		}).Error)
	}

	resp, body := do(t, app, "GET", "/api/merchants/padberg/disbursements?limit=2", true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].([]interface{})
	assert.Len(t, data, 2)
	assert.Equal(t, float64(300), data[0].(map[string]interface{})["amount_cents"])

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["last_page"])

	resp, _ = do(t, app, "GET", "/api/merchants/unknown/disbursements", true)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMerchantPendingOrders(t *testing.T) {
	app, _, db := setup(t)
	m := repotest.Merchant(t, db, models.Merchant{Reference: "padberg"})
	repotest.Order(t, db, m.ID, 1500, time.Date(2023, time.January, 3, 9, 0, 0, 0, time.UTC))
	repotest.Order(t, db, m.ID, 500, time.Date(2023, time.January, 2, 9, 0, 0, 0, time.UTC))

	resp, body := do(t, app, "GET", "/api/merchants/padberg/orders/pending", true)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "padberg", body["merchant_reference"])
	pending := body["pending"].(map[string]interface{})
	assert.Equal(t, float64(2), pending["count"])
	assert.Equal(t, float64(2000), pending["gross_cents"])
}
