// Package testutil wires the application on in-memory storage for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

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
	inmemdb "github.com/trezcool/libdesk/storage/database/inmem"
)

func init() {
	core.PasswordCost = bcrypt.MinCost
}

// NopLogger drops everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// Event is a broadcast captured by Notifier.
type Event struct {
	LibraryID string
	Name      string
	Payload   interface{}
}

// Notifier records broadcasts instead of delivering them.
type Notifier struct {
	mu     sync.Mutex
	events []Event
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Broadcast(libraryID, event string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{LibraryID: libraryID, Name: event, Payload: payload})
	return nil
}

func (n *Notifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

// NewValidator returns a validator with the application's custom tags and english messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

// App holds every service of the application, backed by one in-memory database.
type App struct {
	Conf     *core.Config
	Logger   core.Logger
	DB       *inmemdb.DB
	Mail     *emailsvc.ConsoleServiceMock
	Notifier *Notifier
	Tokens   *auth.Tokens

	Validate   *validator.Validate
	Translator ut.Translator

	FounderRepo founder.Repository
	LibraryRepo library.Repository
	StudentRepo student.Repository
	PaymentRepo payment.Repository
	OTPStore    otp.Store

	FounderSvc    *founder.Service
	LibrarySvc    *library.Service
	StudentSvc    *student.Service
	PaymentSvc    *payment.Service
	DashboardSvc  *dashboard.Service
	OTPSvc        *otp.Service
	AppVersionSvc *appversion.Service
}

func NewApp() *App {
	conf := core.NewTestConfig()
	logger := NopLogger{}
	db := inmemdb.Open()
	validate, translator := NewValidator()

	a := &App{
		Conf:        conf,
		Logger:      logger,
		DB:          db,
		Mail:        emailsvc.NewConsoleServiceMock(conf, logger),
		Notifier:    new(Notifier),
		Tokens:      auth.NewTokens(conf),
		Validate:    validate,
		Translator:  translator,
		FounderRepo: inmemdb.NewFounderRepository(db),
		LibraryRepo: inmemdb.NewLibraryRepository(db),
		StudentRepo: inmemdb.NewStudentRepository(db),
		PaymentRepo: inmemdb.NewPaymentRepository(db),
		OTPStore:    inmemdb.NewOTPStore(db),
	}
	a.FounderSvc = founder.NewService(a.FounderRepo)
	a.LibrarySvc = library.NewService(a.LibraryRepo, logger)
	a.StudentSvc = student.NewService(a.StudentRepo, inmemdb.NewSequencer(db), a.Notifier, logger)
	a.PaymentSvc = payment.NewService(a.PaymentRepo, a.StudentSvc, a.Notifier, logger)
	a.DashboardSvc = dashboard.NewService(a.StudentSvc, a.PaymentSvc)
	a.OTPSvc = otp.NewService(a.OTPStore, a.Mail, conf, logger)
	a.AppVersionSvc = appversion.NewService(inmemdb.NewAppVersionRepository(db))
	return a
}

func CreateFounder(t *testing.T, svc *founder.Service, email, pwd string) founder.Founder {
	t.Helper()
	f, err := svc.Create(context.Background(), founder.NewFounder{Name: "Founder", Email: email, Password: pwd})
	if err != nil {
		t.Fatalf("CreateFounder() failed: %v", err)
	}
	return f
}

// NewLibrary returns a valid creation payload; the name doubles as the admin email local part.
func NewLibrary(name, code string) library.NewLibrary {
	amount := decimal.NewFromInt(500)
	return library.NewLibrary{
		Name:          name,
		Code:          code,
		AdminName:     "Admin " + name,
		AdminEmail:    name + "@example.com",
		AdminPhone:    "+919876543210",
		Password:      "secret123",
		Address:       "12 Main Road, Pune",
		BillingAmount: &amount,
	}
}

func CreateLibrary(t *testing.T, svc *library.Service, name, code string) library.Library {
	t.Helper()
	lib, err := svc.Create(context.Background(), NewLibrary(name, code))
	if err != nil {
		t.Fatalf("CreateLibrary() failed: %v", err)
	}
	return lib
}

// NewStudent returns a valid enrollment payload. mobile and aadhar must be unique per test.
func NewStudent(name, mobile, aadhar string, nextDue time.Time) student.NewStudent {
	return student.NewStudent{
		Name:        name,
		Mobile:      mobile,
		Aadhar:      aadhar,
		Gender:      student.GenderFemale,
		DateOfBirth: core.NewDate(time.Date(2002, 3, 14, 0, 0, 0, 0, time.UTC)),
		Shift:       student.ShiftMorning,
		JoiningDate: core.NewDate(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)),
		NextDueDate: core.NewDate(nextDue),
	}
}

func CreateStudent(t *testing.T, svc *student.Service, lib library.Library, name, mobile, aadhar string, nextDue time.Time) student.Student {
	t.Helper()
	s, err := svc.Create(context.Background(), lib.ID, lib.Code, NewStudent(name, mobile, aadhar, nextDue))
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func TenantToken(t *testing.T, tokens *auth.Tokens, lib library.Library) string {
	t.Helper()
	token, err := tokens.IssueTenantAdmin(lib.ID, lib.AdminEmail)
	if err != nil {
		t.Fatalf("TenantToken() failed: %v", err)
	}
	return token
}

func FounderToken(t *testing.T, tokens *auth.Tokens, f founder.Founder) string {
	t.Helper()
	token, err := tokens.IssueFounder(f.ID, f.Email)
	if err != nil {
		t.Fatalf("FounderToken() failed: %v", err)
	}
	return token
}
