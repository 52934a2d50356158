package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AccountKey is the Locals key holding the authenticated account email.
const AccountKey = "account"

// Config holds the accepted credentials.
type Config struct {
	// ApiKey is accepted in the X-API-Key header from station operators.
	ApiKey string
	// JWTSecret verifies HS256 bearer tokens issued by the account service.
	JWTSecret string
}

// New returns a middleware protecting every route behind it.
//
// A bearer token, when present, must verify; its email claim becomes the
// request account. Without a token the API key is checked. With no
// credentials configured every request passes.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
			if cfg.JWTSecret == "" {
				return unauthorized(c, "bearer tokens are not accepted")
			}
			account, err := ParseToken(cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			c.Locals(AccountKey, account)
			return c.Next()
		}

		if cfg.ApiKey != "" {
			key := c.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
				return unauthorized(c, "invalid api key")
			}
			return c.Next()
		}

		if cfg.JWTSecret != "" {
			return unauthorized(c, "missing bearer token")
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

// ParseToken verifies an HS256 token and returns its email claim.
func ParseToken(secret, raw string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", errors.New("token has no email claim")
	}
	return email, nil
}

// Account returns the account set by the middleware, or "".
func Account(c *fiber.Ctx) string {
	account, _ := c.Locals(AccountKey).(string)
	return account
}
