package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth for downstream middleware and handlers.
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxAgencyID = "agency_id"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the subject, role and agency claims into the request
// context. The secret must match the one used when issuing tokens.
// Handlers behind this middleware read the caller's identity via
// c.Get(CtxUserID), c.Get(CtxRole) and c.Get(CtxAgencyID).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Only HS256 tokens are accepted; a token signed with any
			// other method is rejected before the secret is consulted.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			c.Set(CtxUserID, claims["sub"])
			c.Set(CtxRole, claims["role"])
			c.Set(CtxAgencyID, claims["agency"])
			return next(c)
		}
	}
}
