package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(Account(c))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	valid := sign(t, "secret", jwt.MapClaims{"email": "2@bssm.hs.kr", "exp": time.Now().Add(time.Hour).Unix()})
	expired := sign(t, "secret", jwt.MapClaims{"email": "2@bssm.hs.kr", "exp": time.Now().Add(-time.Hour).Unix()})
	noEmail := sign(t, "secret", jwt.MapClaims{"sub": "2"})
	wrongKey := sign(t, "other", jwt.MapClaims{"email": "2@bssm.hs.kr"})

	tests := []struct {
		name    string
		cfg     Config
		headers map[string]string
		status  int
		body    string
	}{
		{name: "open", cfg: Config{}, status: fiber.StatusOK},
		{name: "api key ok", cfg: Config{ApiKey: "k"}, headers: map[string]string{"X-API-Key": "k"}, status: fiber.StatusOK},
		{name: "api key wrong", cfg: Config{ApiKey: "k"}, headers: map[string]string{"X-API-Key": "x"}, status: fiber.StatusUnauthorized},
		{name: "api key missing", cfg: Config{ApiKey: "k"}, status: fiber.StatusUnauthorized},
		{name: "jwt ok", cfg: Config{JWTSecret: "secret"}, headers: map[string]string{"Authorization": "Bearer " + valid}, status: fiber.StatusOK, body: "2@bssm.hs.kr"},
		{name: "jwt with api key configured", cfg: Config{ApiKey: "k", JWTSecret: "secret"}, headers: map[string]string{"Authorization": "Bearer " + valid}, status: fiber.StatusOK, body: "2@bssm.hs.kr"},
		{name: "jwt expired", cfg: Config{JWTSecret: "secret"}, headers: map[string]string{"Authorization": "Bearer " + expired}, status: fiber.StatusUnauthorized},
		{name: "jwt without email", cfg: Config{JWTSecret: "secret"}, headers: map[string]string{"Authorization": "Bearer " + noEmail}, status: fiber.StatusUnauthorized},
		{name: "jwt wrong secret", cfg: Config{JWTSecret: "secret"}, headers: map[string]string{"Authorization": "Bearer " + wrongKey}, status: fiber.StatusUnauthorized},
		{name: "jwt not configured", cfg: Config{ApiKey: "k"}, headers: map[string]string{"Authorization": "Bearer " + valid}, status: fiber.StatusUnauthorized},
		{name: "jwt required", cfg: Config{JWTSecret: "secret"}, status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := newApp(tt.cfg).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.body, string(body))
			}
		})
	}
}
