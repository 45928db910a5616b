package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/billing"
	"github.com/trezcool/libdesk/core/student"
)

const recentDays = 7

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("Payment not found")
)

// Repository persists payments. Every method is scoped to a library.
type Repository interface {
	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	GetPayment(ctx context.Context, libraryID, id string) (Payment, error)
	UpdatePayment(ctx context.Context, p Payment) (Payment, error)
	DeletePayment(ctx context.Context, libraryID, id string) error
	// StudentPayments lists a student's payments, latest period first.
	StudentPayments(ctx context.Context, libraryID, studentID string) ([]Payment, error)
	// QueryPayments lists payments with their student name and roll number, latest paid first.
	QueryPayments(ctx context.Context, libraryID string, filter QueryFilter) ([]Payment, error)
	// RecentPayments lists payments paid at or after since, latest first.
	RecentPayments(ctx context.Context, libraryID string, since time.Time) ([]RecentPayment, error)
	// TotalsByMethod sums the amounts paid between from and to (inclusive) per method.
	TotalsByMethod(ctx context.Context, libraryID string, from, to time.Time) ([]MethodTotal, error)
}

// StudentLedger is the part of the student service payments need.
type StudentLedger interface {
	Get(ctx context.Context, libraryID, id string) (student.Student, error)
	RecordPayment(ctx context.Context, libraryID, id string, nextDue, paidAt time.Time) error
}

type Service struct {
	repo     Repository
	students StudentLedger
	notifier core.Notifier
	logger   core.Logger
}

func NewService(repo Repository, students StudentLedger, notifier core.Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, students: students, notifier: notifier, logger: logger}
}

// Create records a payment for a student of the library and moves the student's fee schedule:
// nextDueDate becomes the one given with the payment and lastPaidDate its paid date.
// The two writes are not transactional.
func (svc *Service) Create(ctx context.Context, libraryID string, np NewPayment) (Payment, error) {
	if _, err := svc.students.Get(ctx, libraryID, np.StudentID); err != nil {
		return Payment{}, err
	}

	now := NowFunc().UTC()
	p := Payment{
		ID:            uuid.NewString(),
		LibraryID:     libraryID,
		StudentID:     np.StudentID,
		Amount:        *np.Amount,
		PaymentMethod: np.PaymentMethod,
		FromMonth:     np.FromMonth.Time,
		ToMonth:       np.ToMonth.Time,
		NextDueDate:   np.NextDueDate.Time,
		PaidDate:      now,
		Notes:         np.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if np.Discount != nil {
		p.Discount = *np.Discount
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = MethodCash
	}
	if t := np.PaidDate.TimePtr(); t != nil {
		p.PaidDate = *t
	}

	p, err := svc.repo.CreatePayment(ctx, p)
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}
	if err = svc.students.RecordPayment(ctx, libraryID, p.StudentID, p.NextDueDate, p.PaidDate); err != nil {
		return Payment{}, errors.Wrap(err, "updating student fee dates")
	}

	if err := svc.notifier.Broadcast(libraryID, core.EventPaymentCreated, p); err != nil {
		svc.logger.Warn(fmt.Sprintf("broadcasting %s: %v", core.EventPaymentCreated, err), err)
	}
	return p, nil
}

func (svc *Service) StudentPayments(ctx context.Context, libraryID, studentID string) ([]Payment, error) {
	if _, err := svc.students.Get(ctx, libraryID, studentID); err != nil {
		return nil, err
	}
	payments, err := svc.repo.StudentPayments(ctx, libraryID, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student payments")
	}
	return payments, nil
}

// Update corrects a payment. The student's fee dates are left as they are.
func (svc *Service) Update(ctx context.Context, libraryID, id string, up UpdatePayment) (Payment, error) {
	p, err := svc.repo.GetPayment(ctx, libraryID, id)
	if err != nil {
		return Payment{}, err
	}

	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.Discount != nil {
		p.Discount = *up.Discount
	}
	if up.PaymentMethod != nil && *up.PaymentMethod != "" {
		p.PaymentMethod = *up.PaymentMethod
	}
	if t := up.FromMonth.TimePtr(); t != nil {
		p.FromMonth = *t
	}
	if t := up.ToMonth.TimePtr(); t != nil {
		p.ToMonth = *t
	}
	if t := up.NextDueDate.TimePtr(); t != nil {
		p.NextDueDate = *t
	}
	if up.Notes != nil && *up.Notes != "" {
		p.Notes = *up.Notes
	}
	if err = checkMonthRange(p.FromMonth, p.ToMonth); err != nil {
		return Payment{}, err
	}
	p.UpdatedAt = NowFunc().UTC()

	return svc.repo.UpdatePayment(ctx, p)
}

// Delete removes a payment. The student's fee dates are left as they are.
func (svc *Service) Delete(ctx context.Context, libraryID, id string) error {
	return svc.repo.DeletePayment(ctx, libraryID, id)
}

func (svc *Service) Query(ctx context.Context, libraryID string, filter QueryFilter) ([]Payment, error) {
	payments, err := svc.repo.QueryPayments(ctx, libraryID, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

// Recent lists the payments of the last 7 days (counted from the start of today).
func (svc *Service) Recent(ctx context.Context, libraryID string) ([]RecentPayment, error) {
	since := billing.StartOfDay(NowFunc()).AddDate(0, 0, -recentDays)
	payments, err := svc.repo.RecentPayments(ctx, libraryID, since)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent payments")
	}
	return payments, nil
}

// MonthlyCollection tallies what was collected during the month containing t.
func (svc *Service) MonthlyCollection(ctx context.Context, libraryID string, t time.Time) (Collection, error) {
	from, to := billing.MonthRange(t)
	totals, err := svc.repo.TotalsByMethod(ctx, libraryID, from, to)
	if err != nil {
		return Collection{}, errors.Wrap(err, "summing payments")
	}
	return Tally(totals), nil
}
