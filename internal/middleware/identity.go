package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

const (
	accountKey = "account"
	roleKey    = "role"
)

// Account returns the authenticated account set by JWTAuth.
func Account(c echo.Context) (model.Account, bool) {
	acc, ok := c.Get(accountKey).(model.Account)
	return acc, ok && !acc.IsZero()
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	r, _ := c.Get(roleKey).(string)
	return r
}

// subject names the caller for rate limit keys.
func subject(c echo.Context) string {
	if acc, ok := Account(c); ok {
		return acc.String()
	}
	return "anon"
}
