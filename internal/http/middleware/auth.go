package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const identityLocal = "identity"

// IdentityClaims is the session token payload minted by the identity
// provider edge. Subject carries the opaque provider user id; the display
// attributes come along so profile creation never calls the provider.
type IdentityClaims struct {
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates the Bearer session token and stores its claims on the
// request. It never calls the identity provider itself.
func Auth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &IdentityClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals(identityLocal, claims)
		return c.Next()
	}
}

// Identity returns the authenticated caller's claims, if any.
func Identity(c *fiber.Ctx) (*IdentityClaims, bool) {
	claims, ok := c.Locals(identityLocal).(*IdentityClaims)
	return claims, ok
}
