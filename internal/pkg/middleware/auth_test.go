package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbloc/payblock/internal/pkg/security"
	"github.com/finbloc/payblock/internal/pkg/usercontext"
)

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", TokenAuthMiddleware(), func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		return c.JSON(fiber.Map{"username": uc.Username, "is_admin": uc.IsAdmin})
	})
	app.Get("/admin", TokenAuthMiddleware(), RequireAdmin, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestTokenAuthMiddleware_MissingToken(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTokenAuthMiddleware_InvalidToken(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTokenAuthMiddleware_ExpiredToken(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "middleware-test-secret")
	app := newProtectedApp()

	token, _, err := security.GenerateAuthToken(1, "alice", false, -time.Minute, "middleware-test-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTokenAuthMiddleware_ValidToken(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "middleware-test-secret")
	app := newProtectedApp()

	token, _, err := security.GenerateAuthToken(1, "alice", false, time.Hour, "middleware-test-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "middleware-test-secret")
	app := newProtectedApp()

	userToken, _, err := security.GenerateAuthToken(1, "alice", false, time.Hour, "middleware-test-secret")
	require.NoError(t, err)
	adminToken, _, err := security.GenerateAuthToken(2, "root", true, time.Hour, "middleware-test-secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+userToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestExtractBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/echo", func(c *fiber.Ctx) error {
		return c.SendString(ExtractBearerToken(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set(fiber.HeaderAuthorization, "bearer abc123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body := make([]byte, 6)
	_, _ = resp.Body.Read(body)
	assert.Equal(t, "abc123", string(body))
}
