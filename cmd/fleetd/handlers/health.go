package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/vmfleet/vmfleet/pkg/api/types/errors"
)

// HealthHandler reports whether the daemon can reach its database.
func HealthHandler(ping func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := ping(c.Request().Context()); err != nil {
			return apierr.ServiceUnavailable("database is not reachable", err)
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
