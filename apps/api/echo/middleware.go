package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/library"
)

// accessGateMiddleware must run after tenantAuthMiddleware. It refuses every request of a blocked
// library and stores the library on the context for the handlers.
func accessGateMiddleware(svc *library.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			admin, err := getContextTenant(ctx)
			if err != nil {
				return err
			}
			lib, err := svc.CheckAccess(ctx.Request().Context(), admin.LibraryID)
			if err != nil {
				return errors.Wrap(err, "checking library access")
			}
			ctx.Set(contextLibraryKey, lib)
			return next(ctx)
		}
	}
}

// rateLimitMiddleware allows conf.RateLimit requests per client IP and window.
func rateLimitMiddleware(conf core.ServerConfig) echo.MiddlewareFunc {
	if conf.RateLimit <= 0 || conf.RateLimitWindow <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(conf.RateLimit) / conf.RateLimitWindow.Seconds()),
		Burst:     conf.RateLimit,
		ExpiresIn: conf.RateLimitWindow,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return errTooManyRequests
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyRequests
		},
	})
}
