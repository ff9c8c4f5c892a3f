package middleware

// identity.go holds the context keys written by JWTAuth and the helpers
// handlers and other middleware use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
	switch v := c.Get(ctxUserID).(type) {
	case uint64:
		return v, v != 0
	case float64:
		if v > 0 {
			return uint64(v), true
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n != 0 {
			return n, true
		}
	}
	return 0, false
}

// Role returns the authenticated role or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// userKey identifies the caller for rate limiting; anonymous callers share
// the "anon" bucket of their IP.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
