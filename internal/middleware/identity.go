package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// callerID returns the authenticated user id as a string, or "anon" for
// unauthenticated requests. Rate limit keys use it so that staff quotas
// do not pool on a shared IP.
func callerID(c echo.Context) string {
	switch v := c.Get(CtxUserID).(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		// jwt.MapClaims decodes numeric subjects as float64.
		if v > 0 {
			return strconv.FormatUint(uint64(v), 10)
		}
	}
	return "anon"
}
