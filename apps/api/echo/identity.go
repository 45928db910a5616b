package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/auth"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/otp"
)

var errGoogleDisabled = echo.NewHTTPError(http.StatusNotImplemented, "Google sign-in is not configured")

type authApi struct {
	otps      *otp.Service
	libraries *library.Service
	google    GoogleVerifier
	tokens    *auth.Tokens
	validate  *validator.Validate
}

func registerAuthAPI(
	g *echo.Group,
	tenantAuth echo.MiddlewareFunc,
	gate echo.MiddlewareFunc,
	otps *otp.Service,
	libraries *library.Service,
	google GoogleVerifier,
	tokens *auth.Tokens,
	validate *validator.Validate,
) {
	api := authApi{
		otps:      otps,
		libraries: libraries,
		google:    google,
		tokens:    tokens,
		validate:  validate,
	}

	ag := g.Group("/auth")
	ag.POST("/send-otp", api.sendOTP)
	ag.POST("/verify-otp", api.verifyOTP)
	ag.POST("/google", api.googleLogin)
	ag.POST("/library-password", api.changePassword, tenantAuth, gate)
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// Handlers

func (api *authApi) sendOTP(ctx echo.Context) error {
	var data otp.SendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.otps.Send(ctx.Request().Context(), data.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, message("OTP sent to email"))
}

func (api *authApi) verifyOTP(ctx echo.Context) error {
	var data otp.VerifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.otps.Verify(ctx.Request().Context(), data.Email, data.Code); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, message("OTP verified successfully"))
}

func (api *authApi) googleLogin(ctx echo.Context) error {
	if api.google == nil {
		return errGoogleDisabled
	}

	var data googleLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to googleLoginRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	email, err := api.google.Verify(ctx.Request().Context(), data.IDToken)
	if err != nil {
		return err
	}
	lib, err := api.libraries.AuthenticateByEmail(ctx.Request().Context(), email)
	if err != nil {
		return err
	}
	return respondTenantLogin(ctx, api.tokens, lib)
}

func (api *authApi) changePassword(ctx echo.Context) error {
	lib, err := getContextLibrary(ctx)
	if err != nil {
		return err
	}

	var data library.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.libraries.ChangePassword(ctx.Request().Context(), lib.ID, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, message("Password updated successfully"))
}
