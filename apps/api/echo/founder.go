package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/auth"
	"github.com/trezcool/libdesk/core/founder"
)

type founderApi struct {
	svc      *founder.Service
	tokens   *auth.Tokens
	conf     *core.Config
	validate *validator.Validate
}

func registerFounderAPI(
	g *echo.Group,
	founderAuth echo.MiddlewareFunc,
	svc *founder.Service,
	tokens *auth.Tokens,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := founderApi{
		svc:      svc,
		tokens:   tokens,
		conf:     conf,
		validate: validate,
	}

	fg := g.Group("/founder")
	fg.POST("/login", api.login)
	fg.POST("/logout", api.logout, founderAuth)
	fg.GET("/me", api.me, founderAuth)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

// Handlers

func (api *founderApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := api.tokens.IssueFounder(f.ID, f.Email)
	if err != nil {
		return errors.Wrap(err, "issuing founder token")
	}

	setTokenCookie(ctx, token, api.tokens.TTL(), api.conf.Server.CookieSecure)
	return ctx.JSON(http.StatusOK, echo.Map{"token": token, "founder": f})
}

func (api *founderApi) logout(ctx echo.Context) error {
	clearTokenCookie(ctx, api.conf.Server.CookieSecure)
	return ctx.JSON(http.StatusOK, message("Logged out successfully"))
}

func (api *founderApi) me(ctx echo.Context) error {
	p, err := getContextFounder(ctx)
	if err != nil {
		return err
	}
	f, err := api.svc.Get(ctx.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}
