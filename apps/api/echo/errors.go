package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

var (
	errTokenRequired   = core.NewAuthError("Access token required")
	errTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var body echo.Map

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body = echo.Map{"error": origErr.Message}
		case validator.ValidationErrors:
			vErr := core.TranslateValidationErrors(origErr, translator).(*core.ValidationError)
			code = http.StatusBadRequest
			body = validationBody(vErr)
		case *core.ValidationError:
			code = http.StatusBadRequest
			body = validationBody(origErr)
		case *core.NotFoundError:
			code = http.StatusNotFound
			body = echo.Map{"error": origErr.Error()}
		case *core.ConflictError:
			code = http.StatusConflict
			body = echo.Map{"error": origErr.Error(), "field": origErr.Field}
		case *core.AuthError:
			code = http.StatusUnauthorized
			body = echo.Map{"error": origErr.Error()}
		case *core.PermissionError:
			code = http.StatusForbidden
			body = echo.Map{"error": origErr.Error()}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body = echo.Map{"error": msg}

			args := []interface{}{errors.Wrap(err, msg)}
			if p, ok := getContextPrincipal(ctx); ok {
				args = append(args, p)
			}
			logger.Error(msg, args...)

			if ctx.Echo().Debug {
				body["error"] = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func validationBody(vErr *core.ValidationError) echo.Map {
	body := echo.Map{"error": vErr.Error()}
	if len(vErr.Fields) > 0 {
		flds := make(map[string]string, len(vErr.Fields))
		for _, fErr := range vErr.Fields {
			flds[fErr.Field] = fErr.Error
		}
		body["fields"] = flds
	}
	return body
}
