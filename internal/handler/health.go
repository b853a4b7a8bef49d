package handler // declare the package name; contains request handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework behind the gateway
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the gateway is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
