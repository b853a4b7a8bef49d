package middleware

import "github.com/labstack/echo/v4"

// subject returns the authenticated token subject stored by JWTAuth, or
// "anon" when the gateway runs without authentication.
func subject(c echo.Context) string {
	if s, ok := c.Get("subject").(string); ok && s != "" {
		return s
	}
	return "anon"
}
