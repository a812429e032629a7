package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/vmfleet/vmfleet/pkg/api/types/errors"
	apimachines "github.com/vmfleet/vmfleet/pkg/api/types/machines"
	"github.com/vmfleet/vmfleet/pkg/domain"
	domerr "github.com/vmfleet/vmfleet/pkg/domain/errors"
	kmachine "github.com/vmfleet/vmfleet/pkg/domain/machine/db"
	"github.com/vmfleet/vmfleet/pkg/utils"
)

// GetMachinesHandler serves machine listings.
//
// The "status" query parameter selects which: "connected" (live
// connections, served from memory via connected), "authorized", or
// "all" (default).
func GetMachinesHandler(
	dbMachine kmachine.Interface,
	connected func() []domain.Machine,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var found []domain.Machine
		switch status := c.QueryParam("status"); status {
		case "connected":
			found = connected()
		case "authorized":
			var err error
			found, err = dbMachine.ListAuthorized(ctx)
			if err != nil {
				return apierr.InternalServerError(err)
			}
		case "all", "":
			var err error
			found, err = dbMachine.ListAll(ctx)
			if err != nil {
				return apierr.InternalServerError(err)
			}
		default:
			return apierr.BadRequest(
				`status should be one of "connected", "authorized" or "all"`, nil,
			)
		}

		return c.JSON(http.StatusOK, utils.Map(found, apimachines.ComposeDetail))
	}
}

// GetMachineHandler serves a single machine looked up by the path
// parameter named by paramKey.
func GetMachineHandler(dbMachine kmachine.Interface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		vmID := c.Param(paramKey)

		machine, err := dbMachine.Get(ctx, vmID)
		if err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NewErrorMessage(
					http.StatusNotFound,
					"machine not found",
					apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apimachines.ComposeDetail(machine))
	}
}

func GetDisksHandler(dbMachine kmachine.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		found, err := dbMachine.ListDisks(ctx)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, utils.Map(found, apimachines.ComposeDiskDetail))
	}
}
