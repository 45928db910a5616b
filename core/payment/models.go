package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/libdesk/core"
)

type Method string

const (
	MethodCash   Method = "cash"
	MethodOnline Method = "online"
)

var errMonthRange = errors.New("fromMonth cannot be after toMonth")

// Payment is a student fee payment covering the months [FromMonth, ToMonth].
type Payment struct {
	ID            string          `json:"id" db:"id"`
	LibraryID     string          `json:"libraryId" db:"library_id"`
	StudentID     string          `json:"studentId" db:"student_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	PaymentMethod Method          `json:"paymentMethod" db:"payment_method"`
	FromMonth     time.Time       `json:"fromMonth" db:"from_month"`
	ToMonth       time.Time       `json:"toMonth" db:"to_month"`
	NextDueDate   time.Time       `json:"nextDueDate" db:"next_due_date"`
	PaidDate      time.Time       `json:"paidDate" db:"paid_date"`
	Notes         string          `json:"notes" db:"notes"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`

	// set by list queries
	StudentName       string `json:"studentName,omitempty" db:"student_name"`
	StudentRollNumber string `json:"studentRollNumber,omitempty" db:"student_roll_number"`
}

// RecentPayment is a payment joined with its student, as shown on the tenant home screen.
type RecentPayment struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	RollNumber    string          `json:"rollNumber" db:"roll_number"`
	PaidDate      time.Time       `json:"paidDate" db:"paid_date"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod Method          `json:"paymentMethod" db:"payment_method"`
}

// NewPayment contains information needed to record a Payment.
type NewPayment struct {
	StudentID     string           `json:"studentId" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Discount      *decimal.Decimal `json:"discount"`
	PaymentMethod Method           `json:"paymentMethod" validate:"omitempty,oneof=cash online"`
	FromMonth     *core.Date       `json:"fromMonth" validate:"required"`
	ToMonth       *core.Date       `json:"toMonth" validate:"required"`
	NextDueDate   *core.Date       `json:"nextDueDate" validate:"required"`
	PaidDate      *core.Date       `json:"paidDate"`
	Notes         string           `json:"notes" validate:"max=500"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.Notes = core.CleanString(np.Notes)
	np.PaymentMethod = Method(core.CleanString(string(np.PaymentMethod), true /* lower */))

	if err := validate.Struct(np); err != nil {
		return err
	}
	if err := checkAmounts(np.Amount, np.Discount); err != nil {
		return err
	}
	return checkMonthRange(np.FromMonth.Time, np.ToMonth.Time)
}

// UpdatePayment defines what may be corrected on a Payment. It does not touch the student's fee dates.
type UpdatePayment struct {
	Amount        *decimal.Decimal `json:"amount"`
	Discount      *decimal.Decimal `json:"discount"`
	PaymentMethod *Method          `json:"paymentMethod" validate:"omitempty,oneof=cash online"`
	FromMonth     *core.Date       `json:"fromMonth"`
	ToMonth       *core.Date       `json:"toMonth"`
	NextDueDate   *core.Date       `json:"nextDueDate"`
	Notes         *string          `json:"notes" validate:"omitempty,max=500"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	if up.Notes != nil {
		*up.Notes = core.CleanString(*up.Notes)
	}
	if err := validate.Struct(up); err != nil {
		return err
	}
	return checkAmounts(up.Amount, up.Discount)
}

// QueryFilter narrows payments by paid date; the range only applies when both bounds are set.
type QueryFilter struct {
	From *core.Date `query:"from"`
	To   *core.Date `query:"to"`
}

func (qf QueryFilter) Range() (from, to time.Time, ok bool) {
	f, t := qf.From.TimePtr(), qf.To.TimePtr()
	if f == nil || t == nil {
		return time.Time{}, time.Time{}, false
	}
	return *f, *t, true
}

func checkAmounts(amount, discount *decimal.Decimal) error {
	if amount != nil && amount.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "amount", Error: "amount must be 0 or greater"})
	}
	if discount != nil && discount.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "discount", Error: "discount must be 0 or greater"})
	}
	return nil
}

func checkMonthRange(from, to time.Time) error {
	if from.After(to) {
		return core.NewValidationError(errMonthRange, core.FieldError{Field: "fromMonth", Error: errMonthRange.Error()})
	}
	return nil
}
