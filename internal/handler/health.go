package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness for load balancers and monitoring. It answers
// before auth, rate limiting and the database are consulted.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
