package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/auth"
	"github.com/trezcool/libdesk/core/library"
)

type libraryApi struct {
	svc      *library.Service
	tokens   *auth.Tokens
	validate *validator.Validate
}

func registerLibraryAPI(
	g *echo.Group,
	founderAuth echo.MiddlewareFunc,
	svc *library.Service,
	tokens *auth.Tokens,
	validate *validator.Validate,
) {
	api := libraryApi{
		svc:      svc,
		tokens:   tokens,
		validate: validate,
	}

	// founder console
	lg := g.Group("/libraries", founderAuth)
	lg.GET("", api.query)
	lg.POST("", api.create)
	lg.GET("/dashboard/stats", api.stats)
	lg.GET("/dashboard/recent", api.recent)

	dg := lg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PATCH("", api.update)
	dg.PATCH("/block", api.block)
	dg.PATCH("/unblock", api.unblock)
	dg.PATCH("/mark-paid", api.markPaid)

	// library admins
	g.POST("/library/login", api.login)
}

// Handlers

func (api *libraryApi) create(ctx echo.Context) error {
	var data library.NewLibrary
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLibrary")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lib, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lib)
}

func (api *libraryApi) query(ctx echo.Context) error {
	var filter library.QueryFilter
	var err error
	filter.Status = library.Status(ctx.QueryParam("status"))
	filter.Search = ctx.QueryParam("search")
	if filter.AccessBlocked, err = queryBool(ctx, "accessBlocked"); err != nil {
		return err
	}
	if filter.IsPaymentRequired, err = queryBool(ctx, "isPaymentRequired"); err != nil {
		return err
	}
	filter.Clean()

	var ord Ordering
	ord.Bind(ctx, library.OrderingFields)

	libs, err := api.svc.Query(ctx.Request().Context(), filter, ord.Orderings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, libs)
}

func (api *libraryApi) retrieve(ctx echo.Context) error {
	lib, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lib)
}

func (api *libraryApi) update(ctx echo.Context) error {
	var data library.UpdateLibrary
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLibrary")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lib, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lib)
}

func (api *libraryApi) block(ctx echo.Context) error {
	lib, err := api.svc.Block(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lib)
}

func (api *libraryApi) unblock(ctx echo.Context) error {
	lib, err := api.svc.Unblock(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lib)
}

func (api *libraryApi) markPaid(ctx echo.Context) error {
	var data library.MarkPaid
	if err := ctx.Bind(&data); err != nil { // body is optional
		return errors.Wrap(err, "binding to MarkPaid")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lib, err := api.svc.MarkPaid(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lib)
}

func (api *libraryApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *libraryApi) recent(ctx echo.Context) error {
	acts, err := api.svc.RecentActivities(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *libraryApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lib, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	return respondTenantLogin(ctx, api.tokens, lib)
}

func respondTenantLogin(ctx echo.Context, tokens *auth.Tokens, lib library.Library) error {
	token, err := tokens.IssueTenantAdmin(lib.ID, lib.AdminEmail)
	if err != nil {
		return errors.Wrap(err, "issuing library token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token, "library": lib})
}
