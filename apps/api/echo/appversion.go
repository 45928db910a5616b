package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/appversion"
)

type appVersionApi struct {
	svc      *appversion.Service
	validate *validator.Validate
}

func registerAppVersionAPI(g *echo.Group, founderAuth echo.MiddlewareFunc, svc *appversion.Service, validate *validator.Validate) {
	api := appVersionApi{svc: svc, validate: validate}

	vg := g.Group("/app-version")
	vg.GET("/latest", api.latest)
	vg.POST("/create", api.create, founderAuth)
}

// Handlers

func (api *appVersionApi) latest(ctx echo.Context) error {
	v, err := api.svc.Latest(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *appVersionApi) create(ctx echo.Context) error {
	var data appversion.NewAppVersion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAppVersion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, v)
}
