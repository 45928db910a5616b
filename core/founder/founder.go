package founder

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = core.NewNotFoundError("founder not found")
	ErrInvalidCredentials = core.NewAuthError("Invalid email or password")
)

// Founder is a platform operator. Founders are seeded from the admin CLI.
type Founder struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (f *Founder) SetPassword(pwd string) error {
	hash, err := core.HashPassword(pwd)
	if err != nil {
		return err
	}
	f.PasswordHash = hash
	return nil
}

func (f *Founder) CheckPassword(pwd string) error {
	return core.CheckPassword(f.PasswordHash, pwd)
}

// NewFounder contains information needed to create a new Founder.
type NewFounder struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (nf *NewFounder) Validate(validate *validator.Validate) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Email = core.CleanString(nf.Email, true /* lower */)
	return validate.Struct(nf)
}

type Repository interface {
	// CreateFounder fails with a core.ConflictError when the email is taken.
	CreateFounder(ctx context.Context, f Founder) (Founder, error)
	GetFounderByID(ctx context.Context, id string) (Founder, error)
	GetFounderByEmail(ctx context.Context, email string) (Founder, error)
	UpdateFounderPassword(ctx context.Context, id string, hash []byte) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nf NewFounder) (Founder, error) {
	f := Founder{
		ID:        uuid.NewString(),
		Name:      nf.Name,
		Email:     nf.Email,
		CreatedAt: NowFunc().UTC(),
	}
	if err := f.SetPassword(nf.Password); err != nil {
		return Founder{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateFounder(ctx, f)
}

func (svc *Service) Get(ctx context.Context, id string) (Founder, error) {
	return svc.repo.GetFounderByID(ctx, id)
}

// Authenticate returns the founder matching the credentials, or ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Founder, error) {
	f, err := svc.repo.GetFounderByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Founder{}, ErrInvalidCredentials
		}
		return Founder{}, errors.Wrap(err, "finding founder by email")
	}
	if err = f.CheckPassword(pwd); err != nil {
		return Founder{}, ErrInvalidCredentials
	}
	return f, nil
}

// ResetPassword sets a new password for the founder with the given email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	f, err := svc.repo.GetFounderByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = f.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateFounderPassword(ctx, f.ID, f.PasswordHash)
}
