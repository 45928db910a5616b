package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/libdesk/apps/api/echo"
	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/appversion"
	"github.com/trezcool/libdesk/core/auth"
	"github.com/trezcool/libdesk/core/dashboard"
	"github.com/trezcool/libdesk/core/founder"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/otp"
	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/core/student"
	emailsvc "github.com/trezcool/libdesk/services/email"
	"github.com/trezcool/libdesk/services/google"
	logsvc "github.com/trezcool/libdesk/services/logger"
	"github.com/trezcool/libdesk/services/objectstore"
	"github.com/trezcool/libdesk/services/realtime"
	"github.com/trezcool/libdesk/storage/database"
	inmemdb "github.com/trezcool/libdesk/storage/database/inmem"
	sqlxrepos "github.com/trezcool/libdesk/storage/database/sqlx"
	"github.com/trezcool/libdesk/storage/redisstore"
)

// storage groups what the services persist through.
type storage struct {
	founders    founder.Repository
	libraries   library.Repository
	students    student.Repository
	payments    payment.Repository
	appVersions appversion.Repository
	otps        otp.Store
	sequencer   student.Sequencer
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZap(conf)
	errAndDie(err)
	defer func() { _ = zl.Sync() }()

	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	dbLogger.Enable(!conf.Debug && conf.RollbarToken != "")

	ctx := context.Background()

	// set up storage
	st, err := setUpStorage(ctx, conf, zl)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = st.close(); err != nil {
			dbLogger.Error(fmt.Sprintf("failed to close storage: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	store, err := objectstore.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up object store: %v", err), err)
	}

	var googleVerifier echoapi.GoogleVerifier
	if conf.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(conf)
	}

	hub := realtime.NewHub(logger, conf.Server.AllowedOrigins)
	hub.Start()
	defer hub.Stop()

	founderSvc := founder.NewService(st.founders)
	librarySvc := library.NewService(st.libraries, logger)
	studentSvc := student.NewService(st.students, st.sequencer, hub, logger)
	paymentSvc := payment.NewService(st.payments, studentSvc, hub, logger)
	dashboardSvc := dashboard.NewService(studentSvc, paymentSvc)
	otpSvc := otp.NewService(st.otps, mailSvc, conf, logger)
	appVersionSvc := appversion.NewService(st.appVersions)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Tokens:        auth.NewTokens(conf),
			FounderSvc:    founderSvc,
			LibrarySvc:    librarySvc,
			StudentSvc:    studentSvc,
			PaymentSvc:    paymentSvc,
			DashboardSvc:  dashboardSvc,
			OTPSvc:        otpSvc,
			AppVersionSvc: appVersionSvc,
			Google:        googleVerifier,
			Store:         store,
			Realtime:      hub,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStorage picks the repositories for conf.Database.Engine ("memory" or a sql driver name).
// With redis enabled, roll sequences and OTPs live in redis.
func setUpStorage(ctx context.Context, conf *core.Config, zl *zap.Logger) (storage, error) {
	var st storage

	if conf.Database.Engine == "memory" {
		zl.Warn("using the in-memory database: data is lost on exit")
		db := inmemdb.Open()
		st = storage{
			founders:    inmemdb.NewFounderRepository(db),
			libraries:   inmemdb.NewLibraryRepository(db),
			students:    inmemdb.NewStudentRepository(db),
			payments:    inmemdb.NewPaymentRepository(db),
			appVersions: inmemdb.NewAppVersionRepository(db),
			otps:        inmemdb.NewOTPStore(db),
			sequencer:   inmemdb.NewSequencer(db),
			close:       func() error { return nil },
		}
	} else {
		if err := database.CreateIfNotExist(conf); err != nil {
			return st, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return st, err
		}
		if err = database.Migrate(ctx, db.DB, "up"); err != nil {
			_ = db.Close()
			return st, err
		}
		st = storage{
			founders:    sqlxrepos.NewFounderRepository(db),
			libraries:   sqlxrepos.NewLibraryRepository(db),
			students:    sqlxrepos.NewStudentRepository(db),
			payments:    sqlxrepos.NewPaymentRepository(db),
			appVersions: sqlxrepos.NewAppVersionRepository(db),
			otps:        sqlxrepos.NewOTPStore(db),
			sequencer:   sqlxrepos.NewSequencer(db),
			close:       db.Close,
		}
	}

	if !conf.Redis.Enabled {
		return st, nil
	}
	client, err := redisstore.Open(ctx, conf)
	if err != nil {
		_ = st.close()
		return st, err
	}
	st.otps = redisstore.NewOTPStore(client)
	st.sequencer = redisstore.NewSequencer(client)

	dbClose := st.close
	st.close = func() error {
		if err := client.Close(); err != nil {
			_ = dbClose()
			return err
		}
		return dbClose()
	}
	return st, nil
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
