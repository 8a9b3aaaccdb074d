package login

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// noCacheHeaders keep browsers and proxies from storing auth responses, which may carry the session state.
var noCacheHeaders = http.Header{
	"Cache-Control":   []string{"no-cache, no-store, must-revalidate, max-age=0"},
	"Pragma":          []string{"no-cache"},
	"Expires":         []string{"Thu, 01 Jan 1970 00:00:00 GMT"},
	"X-Accel-Expires": []string{"0"},
}

func NoCaching(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Response().Header()
		for key, values := range noCacheHeaders {
			header[key] = values
		}
		return next(c)
	}
}
