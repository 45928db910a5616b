package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/libdesk/core/auth"
	"github.com/trezcool/libdesk/core/library"
)

const (
	tokenCookie = "token"

	contextPrincipalKey = "principal"
	contextLibraryKey   = "library"
)

func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// founderToken prefers the session cookie set on login and falls back to the bearer header.
func founderToken(ctx echo.Context) string {
	if c, err := ctx.Cookie(tokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return bearerToken(ctx)
}

func authMiddleware(tokens *auth.Tokens, extract func(echo.Context) string, check func(auth.Principal) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenStr := extract(ctx)
			if tokenStr == "" {
				return errTokenRequired
			}
			p, err := tokens.Verify(tokenStr)
			if err != nil {
				return err
			}
			if err = check(p); err != nil {
				return err
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

func founderAuthMiddleware(tokens *auth.Tokens) echo.MiddlewareFunc {
	return authMiddleware(tokens, founderToken, func(p auth.Principal) error {
		_, err := auth.AsFounder(p)
		return err
	})
}

func tenantAuthMiddleware(tokens *auth.Tokens) echo.MiddlewareFunc {
	return authMiddleware(tokens, bearerToken, func(p auth.Principal) error {
		_, err := auth.AsTenantAdmin(p)
		return err
	})
}

func getContextPrincipal(ctx echo.Context) (auth.Principal, bool) {
	p, ok := ctx.Get(contextPrincipalKey).(auth.Principal)
	return p, ok
}

func getContextFounder(ctx echo.Context) (auth.Founder, error) {
	p, ok := getContextPrincipal(ctx)
	if !ok {
		return auth.Founder{}, errTokenRequired
	}
	return auth.AsFounder(p)
}

func getContextTenant(ctx echo.Context) (auth.TenantAdmin, error) {
	p, ok := getContextPrincipal(ctx)
	if !ok {
		return auth.TenantAdmin{}, errTokenRequired
	}
	return auth.AsTenantAdmin(p)
}

// getContextLibrary returns the library loaded by the access gate.
func getContextLibrary(ctx echo.Context) (library.Library, error) {
	if lib, ok := ctx.Get(contextLibraryKey).(library.Library); ok {
		return lib, nil
	}
	return library.Library{}, errTokenRequired
}

func setTokenCookie(ctx echo.Context, token string, ttl time.Duration, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(ctx echo.Context, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
