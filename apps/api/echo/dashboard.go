package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/libdesk/core/dashboard"
)

func registerDashboardAPI(g *echo.Group, tenantAuth, gate echo.MiddlewareFunc, svc *dashboard.Service) {
	g.GET("/dashboard", func(ctx echo.Context) error {
		lib, err := getContextLibrary(ctx)
		if err != nil {
			return err
		}
		stats, err := svc.Stats(ctx.Request().Context(), lib.ID)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, stats)
	}, tenantAuth, gate)
}
