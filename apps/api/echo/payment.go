package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/services/spreadsheet"
)

var exportFileName = "payments.xlsx"

type paymentApi struct {
	svc      *payment.Service
	validate *validator.Validate
}

func registerPaymentAPI(
	g *echo.Group,
	tenantAuth echo.MiddlewareFunc,
	gate echo.MiddlewareFunc,
	svc *payment.Service,
	validate *validator.Validate,
) {
	api := paymentApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/payments", tenantAuth, gate)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/export", api.export)
	pg.GET("/student/:id", api.studentPayments)
	pg.PUT("/:id", api.update)
	pg.DELETE("/:id", api.destroy)
}

func bindPaymentFilter(ctx echo.Context) (payment.QueryFilter, error) {
	var filter payment.QueryFilter
	var err error
	if filter.From, err = queryDate(ctx, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(ctx, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

// Handlers

func (api *paymentApi) create(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}

	var data payment.NewPayment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), lib.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *paymentApi) query(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	filter, err := bindPaymentFilter(ctx)
	if err != nil {
		return err
	}

	payments, err := api.svc.Query(ctx.Request().Context(), lib.ID, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) studentPayments(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	payments, err := api.svc.StudentPayments(ctx.Request().Context(), lib.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) update(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}

	var data payment.UpdatePayment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), lib.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), lib.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, message("Payment deleted successfully"))
}

func (api *paymentApi) export(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}
	filter, err := bindPaymentFilter(ctx)
	if err != nil {
		return err
	}

	payments, err := api.svc.Query(ctx.Request().Context(), lib.ID, filter)
	if err != nil {
		return err
	}
	data, err := spreadsheet.Payments(payments)
	if err != nil {
		return errors.Wrap(err, "building payments workbook")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFileName))
	return ctx.Blob(http.StatusOK, spreadsheet.ContentType, data)
}
