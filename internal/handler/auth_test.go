package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdminAuth(t *testing.T) {
	testCases := []struct {
		name   string
		apiKey string
		header string
		status int
	}{
		{"valid_key", "s3cret", "Bearer s3cret", fiber.StatusOK},
		{"wrong_key", "s3cret", "Bearer nope", fiber.StatusUnauthorized},
		{"missing_header", "s3cret", "", fiber.StatusUnauthorized},
		{"missing_scheme", "s3cret", "s3cret", fiber.StatusUnauthorized},
		{"empty_configured_key", "", "Bearer anything", fiber.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(NewAdminAuth(tc.apiKey))
			app.Get("/admin/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() {
				_ = resp.Body.Close()
			}()

			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
