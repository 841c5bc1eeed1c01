package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth and RequestID.
const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id > 0
}

// Role returns the authenticated user's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// RequestIDFrom returns the id assigned by RequestID.
func RequestIDFrom(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}

// currentUserID renders the caller for rate-limit keys and logs.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
