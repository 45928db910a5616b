package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/core/student"
)

type studentApi struct {
	svc      *student.Service
	payments *payment.Service
	validate *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	tenantAuth echo.MiddlewareFunc,
	gate echo.MiddlewareFunc,
	svc *student.Service,
	payments *payment.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		svc:      svc,
		payments: payments,
		validate: validate,
	}

	sg := g.Group("/student", tenantAuth, gate)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/due", api.dueFees)
	sg.GET("/recentpaid", api.recentPaid)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), lib.ID, lib.Code, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}

	filter := student.QueryFilter{
		Search: ctx.QueryParam("search"),
		Shift:  student.Shift(ctx.QueryParam("shift")),
	}
	filter.Clean()

	students, err := api.svc.Query(ctx.Request().Context(), lib.ID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), lib.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), lib.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), lib.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, message("Deleted successfully"))
}

func (api *studentApi) dueFees(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	due, err := api.svc.DueFees(ctx.Request().Context(), lib.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, due)
}

func (api *studentApi) recentPaid(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	recent, err := api.payments.Recent(ctx.Request().Context(), lib.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, recent)
}
