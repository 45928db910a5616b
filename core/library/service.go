package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/billing"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = core.NewNotFoundError("Library not found")
	ErrAccessBlocked      = core.NewPermissionError("Access blocked due to unpaid dues")
	ErrInvalidCredentials = core.NewAuthError("Invalid credentials")
	ErrWrongPassword      = core.NewValidationError(errors.New("Old password is incorrect"))

	errNegativeAmount = "billingAmount must be 0 or greater"
)

const (
	codePrefix       = "LIB"
	maxCodeAttempts  = 1000
	recentActivities = 10
)

type Repository interface {
	// CreateLibrary fails with a core.ConflictError naming the field when the code or admin email is taken.
	CreateLibrary(ctx context.Context, lib Library) (Library, error)
	GetLibraryByID(ctx context.Context, id string) (Library, error)
	GetLibraryByAdminEmail(ctx context.Context, email string) (Library, error)
	LibraryCodeExists(ctx context.Context, code string) (bool, error)
	CountLibraries(ctx context.Context) (int, error)
	QueryLibraries(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Library, error)
	UpdateLibrary(ctx context.Context, lib Library) (Library, error)
	// SetAccessBlocked and MarkPaid are single atomic writes; concurrent calls resolve last-write-wins.
	SetAccessBlocked(ctx context.Context, id string, blocked bool, now time.Time) (Library, error)
	MarkPaid(ctx context.Context, id string, paidAt, nextDue time.Time, notes *string) (Library, error)
	UpdateLibraryPassword(ctx context.Context, id string, hash []byte) error
	SetLibraryProfileImage(ctx context.Context, id, url string) (Library, error)
	AddActivity(ctx context.Context, act Activity) error
	RecentActivities(ctx context.Context, limit int) ([]Activity, error)
}

type Service struct {
	repo   Repository
	logger core.Logger
}

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// withState fills the derived billing state.
func withState(lib Library, now time.Time) Library {
	lib.BillingState = billing.Classify(lib.Account(), now)
	return lib
}

func (svc *Service) record(ctx context.Context, action string, lib Library) {
	act := Activity{
		ID:          uuid.NewString(),
		Action:      action,
		LibraryID:   lib.ID,
		LibraryName: lib.Name,
		CreatedAt:   NowFunc().UTC(),
	}
	if err := svc.repo.AddActivity(ctx, act); err != nil {
		svc.logger.Error(fmt.Sprintf("recording activity %q: %v", action, err), err)
	}
}

// generateCode returns the first free code of the LIB001, LIB002... sequence.
func (svc *Service) generateCode(ctx context.Context) (string, error) {
	count, err := svc.repo.CountLibraries(ctx)
	if err != nil {
		return "", errors.Wrap(err, "counting libraries")
	}
	for n := count + 1; n <= count+maxCodeAttempts; n++ {
		code := fmt.Sprintf("%s%03d", codePrefix, n)
		exists, err := svc.repo.LibraryCodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "checking library code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("unable to generate unique library code")
}

// Create registers a new tenant. When payment is required and no due date is given,
// the first due date is one month after creation.
func (svc *Service) Create(ctx context.Context, nl NewLibrary) (Library, error) {
	now := NowFunc().UTC()

	code := nl.Code
	if code == "" {
		var err error
		if code, err = svc.generateCode(ctx); err != nil {
			return Library{}, err
		}
	}

	isPaymentRequired := true
	if nl.IsPaymentRequired != nil {
		isPaymentRequired = *nl.IsPaymentRequired
	}

	lib := Library{
		ID:                uuid.NewString(),
		Name:              nl.Name,
		Code:              strings.ToUpper(code),
		AdminName:         nl.AdminName,
		AdminEmail:        nl.AdminEmail,
		AdminPhone:        nl.AdminPhone,
		Address:           nl.Address,
		Status:            StatusActive,
		IsPaymentRequired: isPaymentRequired,
		BillingAmount:     *nl.BillingAmount,
		BillingStartDate:  now,
		NextDueDate:       nl.NextDueDate.TimePtr(),
		PaymentNotes:      nl.PaymentNotes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if t := nl.BillingStartDate.TimePtr(); t != nil {
		lib.BillingStartDate = *t
	}
	if lib.IsPaymentRequired && lib.NextDueDate == nil {
		due := billing.NextCycle(now)
		lib.NextDueDate = &due
	}
	if err := lib.SetPassword(nl.Password); err != nil {
		return Library{}, errors.Wrap(err, "hashing password")
	}

	lib, err := svc.repo.CreateLibrary(ctx, lib)
	if err != nil {
		return Library{}, err
	}
	svc.record(ctx, ActionCreated, lib)
	return withState(lib, now), nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Library, error) {
	if len(orderings) == 0 {
		orderings = DefaultOrdering
	}
	libs, err := svc.repo.QueryLibraries(ctx, filter, orderings)
	if err != nil {
		return nil, errors.Wrap(err, "querying libraries")
	}
	now := NowFunc()
	for i := range libs {
		libs[i] = withState(libs[i], now)
	}
	return libs, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Library, error) {
	lib, err := svc.repo.GetLibraryByID(ctx, id)
	if err != nil {
		return Library{}, err
	}
	return withState(lib, NowFunc()), nil
}

func (svc *Service) Update(ctx context.Context, id string, ul UpdateLibrary) (Library, error) {
	lib, err := svc.repo.GetLibraryByID(ctx, id)
	if err != nil {
		return Library{}, err
	}

	if ul.Name != nil {
		lib.Name = *ul.Name
	}
	if ul.AdminName != nil {
		lib.AdminName = *ul.AdminName
	}
	if ul.AdminEmail != nil {
		lib.AdminEmail = *ul.AdminEmail
	}
	if ul.AdminPhone != nil {
		lib.AdminPhone = *ul.AdminPhone
	}
	if ul.Address != nil {
		lib.Address = *ul.Address
	}
	if ul.Status != nil {
		lib.Status = *ul.Status
	}
	if ul.IsPaymentRequired != nil {
		lib.IsPaymentRequired = *ul.IsPaymentRequired
	}
	if ul.BillingAmount != nil {
		lib.BillingAmount = *ul.BillingAmount
	}
	if t := ul.NextDueDate.TimePtr(); t != nil {
		lib.NextDueDate = t
	}
	if ul.AccessBlocked != nil {
		lib.AccessBlocked = *ul.AccessBlocked
	}
	if ul.PaymentNotes != nil {
		lib.PaymentNotes = *ul.PaymentNotes
	}
	now := NowFunc().UTC()
	lib.UpdatedAt = now

	lib, err = svc.repo.UpdateLibrary(ctx, lib)
	if err != nil {
		return Library{}, err
	}
	svc.record(ctx, ActionUpdated, lib)
	return withState(lib, now), nil
}

// Block denies the tenant access to every gated operation.
func (svc *Service) Block(ctx context.Context, id string) (Library, error) {
	now := NowFunc().UTC()
	lib, err := svc.repo.SetAccessBlocked(ctx, id, true, now)
	if err != nil {
		return Library{}, err
	}
	svc.record(ctx, ActionBlocked, lib)
	return withState(lib, now), nil
}

// Unblock only clears the block flag; billing dates are left untouched. Unblocking twice is a no-op.
func (svc *Service) Unblock(ctx context.Context, id string) (Library, error) {
	now := NowFunc().UTC()
	lib, err := svc.repo.SetAccessBlocked(ctx, id, false, now)
	if err != nil {
		return Library{}, err
	}
	svc.record(ctx, ActionUnblocked, lib)
	return withState(lib, now), nil
}

// MarkPaid records a subscription payment: the block is lifted, the last payment is now and
// the next one is due a month from now. Notes replace the previous ones only when given.
func (svc *Service) MarkPaid(ctx context.Context, id string, mp MarkPaid) (Library, error) {
	now := NowFunc().UTC()
	lib, err := svc.repo.MarkPaid(ctx, id, now, billing.NextCycle(now), core.StrPtr(mp.PaymentNotes))
	if err != nil {
		return Library{}, err
	}
	svc.record(ctx, ActionMarkPaid, lib)
	return withState(lib, now), nil
}

// CheckAccess is the gate in front of every tenant-scoped operation.
func (svc *Service) CheckAccess(ctx context.Context, id string) (Library, error) {
	lib, err := svc.repo.GetLibraryByID(ctx, id)
	if err != nil {
		return Library{}, err
	}
	if lib.AccessBlocked {
		return Library{}, ErrAccessBlocked
	}
	return withState(lib, NowFunc()), nil
}

// Authenticate checks the admin credentials of a library. Blocked libraries cannot log in.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Library, error) {
	lib, err := svc.repo.GetLibraryByAdminEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Library{}, ErrInvalidCredentials
		}
		return Library{}, errors.Wrap(err, "finding library by admin email")
	}
	if err = lib.CheckPassword(pwd); err != nil {
		return Library{}, ErrInvalidCredentials
	}
	return svc.CheckAccess(ctx, lib.ID)
}

// AuthenticateByEmail is used by identity providers that already proved the admin owns the email.
func (svc *Service) AuthenticateByEmail(ctx context.Context, email string) (Library, error) {
	lib, err := svc.repo.GetLibraryByAdminEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Library{}, ErrInvalidCredentials
		}
		return Library{}, errors.Wrap(err, "finding library by admin email")
	}
	return svc.CheckAccess(ctx, lib.ID)
}

func (svc *Service) ChangePassword(ctx context.Context, id string, cp ChangePassword) error {
	lib, err := svc.repo.GetLibraryByID(ctx, id)
	if err != nil {
		return err
	}
	if err = lib.CheckPassword(cp.OldPassword); err != nil {
		return ErrWrongPassword
	}
	if err = lib.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateLibraryPassword(ctx, id, lib.PasswordHash)
}

// ResetPassword sets a new admin password without checking the old one (admin CLI).
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	lib, err := svc.repo.GetLibraryByAdminEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = lib.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateLibraryPassword(ctx, lib.ID, lib.PasswordHash)
}

func (svc *Service) SetProfileImage(ctx context.Context, id, url string) (Library, error) {
	lib, err := svc.repo.SetLibraryProfileImage(ctx, id, url)
	if err != nil {
		return Library{}, err
	}
	return withState(lib, NowFunc()), nil
}

// Stats counts libraries for the founder dashboard. "Unpaid" is derived with billing.IsUnpaid.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	libs, err := svc.repo.QueryLibraries(ctx, QueryFilter{}, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying libraries")
	}
	now := NowFunc()
	stats := Stats{TotalLibraries: len(libs)}
	for _, lib := range libs {
		if lib.Status == StatusActive {
			stats.ActiveLibraries++
		}
		if lib.AccessBlocked {
			stats.BlockedLibraries++
		}
		if billing.IsUnpaid(lib.Account(), now) {
			stats.UnpaidLibraries++
		}
	}
	return stats, nil
}

func (svc *Service) RecentActivities(ctx context.Context) ([]Activity, error) {
	acts, err := svc.repo.RecentActivities(ctx, recentActivities)
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return acts, nil
}
