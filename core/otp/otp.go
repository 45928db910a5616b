// Package otp sends and verifies short lived one-time codes by email.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

const codeDigits = 6

var (
	NowFunc = time.Now // mockable

	// errors
	ErrInvalid = core.NewValidationError(errors.New("Invalid OTP"))
	ErrExpired = core.NewValidationError(errors.New("OTP expired"))
)

// OTP is a code sent to an email address.
type OTP struct {
	Email     string    `json:"email" db:"email"`
	Code      string    `json:"otp" db:"code"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Store keeps pending codes. Find returns (OTP{}, false, nil) when no pending code matches.
type Store interface {
	Save(ctx context.Context, o OTP) error
	Find(ctx context.Context, email, code string) (OTP, bool, error)
	Delete(ctx context.Context, email, code string) error
}

type SendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *SendRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,numeric,len=6"`
}

func (r *VerifyRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Code = core.CleanString(r.Code)
	return validate.Struct(r)
}

type Service struct {
	store  Store
	mail   core.EmailService
	ttl    time.Duration
	logger core.Logger
}

func NewService(store Store, mail core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{store: store, mail: mail, ttl: conf.OTPExpiration, logger: logger}
}

// generateCode returns a uniformly random numeric code.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// Send stores a new code for the email and mails it. Mail delivery is asynchronous.
func (svc *Service) Send(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return errors.Wrap(err, "generating otp")
	}
	now := NowFunc().UTC()
	o := OTP{Email: email, Code: code, ExpiresAt: now.Add(svc.ttl), CreatedAt: now}
	if err = svc.store.Save(ctx, o); err != nil {
		return errors.Wrap(err, "saving otp")
	}

	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      "Your verification code",
		TemplateName: "otp",
		TemplateData: struct {
			Code    string
			Minutes int
		}{Code: code, Minutes: int(svc.ttl.Minutes())},
	})
	return nil
}

// Verify consumes a code. Expired codes are deleted and rejected.
func (svc *Service) Verify(ctx context.Context, email, code string) error {
	o, ok, err := svc.store.Find(ctx, email, code)
	if err != nil {
		return errors.Wrap(err, "finding otp")
	}
	if !ok {
		return ErrInvalid
	}
	if err = svc.store.Delete(ctx, email, code); err != nil {
		return errors.Wrap(err, "deleting otp")
	}
	if o.ExpiresAt.Before(NowFunc()) {
		return ErrExpired
	}
	return nil
}
