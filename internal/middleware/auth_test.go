package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"disburse/internal/models"
	"disburse/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(secret, zerolog.Nop())
	app.Get("/ops", auth.Handler, RequireRole(models.RoleOperator), func(c *fiber.Ctx) error {
		claims, err := utils.GetOperatorClaims(c)
		if err != nil {
			return err
		}
		return c.SendString(claims.Subject)
	})
	return app
}

func token(t *testing.T, role string) string {
	tok, err := utils.GenerateOperatorToken(secret, "alice", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", wantStatus: fiber.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: fiber.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: fiber.StatusUnauthorized},
		{name: "viewer role", header: "Bearer " + token(t, "viewer"), wantStatus: fiber.StatusForbidden},
		{name: "operator", header: "Bearer " + token(t, models.RoleOperator), wantStatus: fiber.StatusOK},
		{name: "admin", header: "Bearer " + token(t, models.RoleAdmin), wantStatus: fiber.StatusOK},
	}

	app := newApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ops", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireRole(models.RoleOperator), func(c *fiber.Ctx) error { return nil })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
