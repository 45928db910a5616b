package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/libdesk/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` query param ("-createdAt,name"); unknown fields are ignored.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]string) {
	ord.Orderings = core.ParseOrderings(ctx.QueryParam(orderingParam), allowed)
}

// queryBool returns nil when the param is absent.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: name, Error: name + " must be true or false"})
	}
	return &b, nil
}

// queryDate returns nil when the param is absent.
func queryDate(ctx echo.Context, name string) (*core.Date, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := core.ParseDate(raw)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: name, Error: name + " must be a valid date"})
	}
	return core.NewDate(t), nil
}

// message is the body of the responses that carry nothing but a confirmation.
func message(msg string) echo.Map {
	return echo.Map{"message": msg}
}
