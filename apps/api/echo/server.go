package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/appversion"
	"github.com/trezcool/libdesk/core/auth"
	"github.com/trezcool/libdesk/core/dashboard"
	"github.com/trezcool/libdesk/core/founder"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/otp"
	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/core/student"
	"github.com/trezcool/libdesk/services/objectstore"
)

// GoogleVerifier turns a Google ID token into the verified email it was issued for.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		Tokens        *auth.Tokens
		FounderSvc    *founder.Service
		LibrarySvc    *library.Service
		StudentSvc    *student.Service
		PaymentSvc    *payment.Service
		DashboardSvc  *dashboard.Service
		OTPSvc        *otp.Service
		AppVersionSvc *appversion.Service
		Google        GoogleVerifier
		Store         objectstore.Store
		Realtime      http.Handler

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.Recover())
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.AllowedOrigins,
		AllowCredentials: true,
	}))
	s.app.Use(middleware.Secure())
	s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	s.app.Use(rateLimitMiddleware(conf.Server))

	api := s.app.Group("/api")
	api.GET("/health", health)

	founderAuth := founderAuthMiddleware(s.Tokens)
	tenantAuth := tenantAuthMiddleware(s.Tokens)
	gate := accessGateMiddleware(s.LibrarySvc)

	registerFounderAPI(api, founderAuth, s.FounderSvc, s.Tokens, conf, s.Validate)
	registerLibraryAPI(api, founderAuth, s.LibrarySvc, s.Tokens, s.Validate)
	registerStudentAPI(api, tenantAuth, gate, s.StudentSvc, s.PaymentSvc, s.Validate)
	registerPaymentAPI(api, tenantAuth, gate, s.PaymentSvc, s.Validate)
	registerDashboardAPI(api, tenantAuth, gate, s.DashboardSvc)
	registerAuthAPI(api, tenantAuth, gate, s.OTPSvc, s.LibrarySvc, s.Google, s.Tokens, s.Validate)
	registerUploadAPI(api, tenantAuth, gate, s.Store, s.LibrarySvc, s.StudentSvc)
	registerAppVersionAPI(api, founderAuth, s.AppVersionSvc, s.Validate)

	if s.Realtime != nil {
		api.GET("/ws", echo.WrapHandler(s.Realtime))
	}
}

func (s *Server) Start() {
	addr := s.Conf.Server.Host + ":" + strconv.Itoa(s.Conf.Server.Port)
	if err := s.app.Start(addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors is fed whenever the server could not start or stopped unexpectedly.
func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal is fed on SIGINT, SIGTERM and core shutdown errors.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"message":   "API is running",
		"timestamp": time.Now().UTC(),
	})
}
