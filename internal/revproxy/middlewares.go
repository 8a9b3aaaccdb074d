package revproxy

import (
	"github.com/labstack/echo/v4"
)

// noCookies middleware removes all cookies from a request
func noCookies(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Request().Header.Del(echo.HeaderCookie)
		return next(c)
	}
}

// noAuthorization middleware removes the authorization sent by the browser, the gateway
// attaches the stored credentials instead
func noAuthorization(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Request().Header.Del(echo.HeaderAuthorization)
		return next(c)
	}
}
