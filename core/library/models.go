package library

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/billing"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Activity actions
const (
	ActionCreated   = "library created"
	ActionUpdated   = "library updated"
	ActionBlocked   = "library blocked"
	ActionUnblocked = "library unblocked"
	ActionMarkPaid  = "payment received"
)

// Library is a tenant: one study hall, its admin account and its subscription.
type Library struct {
	ID                string          `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Code              string          `json:"code" db:"code"`
	AdminName         string          `json:"adminName" db:"admin_name"`
	AdminEmail        string          `json:"adminEmail" db:"admin_email"`
	AdminPhone        string          `json:"adminPhone" db:"admin_phone"`
	PasswordHash      []byte          `json:"-" db:"password_hash"`
	Address           string          `json:"address" db:"address"`
	Status            Status          `json:"status" db:"status"`
	IsPaymentRequired bool            `json:"isPaymentRequired" db:"is_payment_required"`
	BillingAmount     decimal.Decimal `json:"billingAmount" db:"billing_amount"`
	BillingStartDate  time.Time       `json:"billingStartDate" db:"billing_start_date"`
	LastPaidDate      *time.Time      `json:"lastPaidDate" db:"last_paid_date"`
	NextDueDate       *time.Time      `json:"nextDueDate" db:"next_due_date"`
	AccessBlocked     bool            `json:"accessBlocked" db:"access_blocked"`
	PaymentNotes      string          `json:"paymentNotes" db:"payment_notes"`
	ProfileImage      string          `json:"profileImage" db:"profile_image"`
	BillingState      billing.State   `json:"billingState" db:"-"` // derived, never stored
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" db:"updated_at"`
}

func (l Library) Account() billing.Account {
	return billing.Account{
		IsPaymentRequired: l.IsPaymentRequired,
		AccessBlocked:     l.AccessBlocked,
		LastPaidDate:      l.LastPaidDate,
		NextDueDate:       l.NextDueDate,
	}
}

func (l *Library) SetPassword(pwd string) error {
	hash, err := core.HashPassword(pwd)
	if err != nil {
		return err
	}
	l.PasswordHash = hash
	return nil
}

func (l *Library) CheckPassword(pwd string) error {
	return core.CheckPassword(l.PasswordHash, pwd)
}

// Activity is an entry of the founder console activity feed.
type Activity struct {
	ID          string    `json:"id" db:"id"`
	Action      string    `json:"action" db:"action"`
	LibraryID   string    `json:"libraryId" db:"library_id"`
	LibraryName string    `json:"libraryName" db:"library_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Stats are the founder dashboard counters.
type Stats struct {
	TotalLibraries   int `json:"totalLibraries"`
	ActiveLibraries  int `json:"activeLibraries"`
	BlockedLibraries int `json:"blockedLibraries"`
	UnpaidLibraries  int `json:"unpaidLibraries"`
}

// NewLibrary contains information needed to create a new Library.
type NewLibrary struct {
	Name              string           `json:"name" validate:"required,min=2,max=100"`
	Code              string           `json:"code" validate:"omitempty,libcode"`
	AdminName         string           `json:"adminName" validate:"required,min=2,max=50"`
	AdminEmail        string           `json:"adminEmail" validate:"required,email"`
	AdminPhone        string           `json:"adminPhone" validate:"required,phone"`
	Password          string           `json:"password" validate:"required,min=6"`
	Address           string           `json:"address" validate:"required,min=10,max=200"`
	IsPaymentRequired *bool            `json:"isPaymentRequired"`
	BillingAmount     *decimal.Decimal `json:"billingAmount" validate:"required"`
	BillingStartDate  *core.Date       `json:"billingStartDate"`
	NextDueDate       *core.Date       `json:"nextDueDate"`
	PaymentNotes      string           `json:"paymentNotes" validate:"max=500"`
}

func (nl *NewLibrary) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	nl.Code = core.CleanString(nl.Code)
	nl.AdminName = core.CleanString(nl.AdminName)
	nl.AdminEmail = core.CleanString(nl.AdminEmail, true /* lower */)
	nl.AdminPhone = core.CleanString(nl.AdminPhone)
	nl.Address = core.CleanString(nl.Address)
	nl.PaymentNotes = core.CleanString(nl.PaymentNotes)

	if err := validate.Struct(nl); err != nil {
		return err
	}
	if nl.BillingAmount.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "billingAmount", Error: errNegativeAmount})
	}
	return nil
}

// UpdateLibrary defines what information may be provided to modify an existing Library.
// Nil fields are left untouched.
type UpdateLibrary struct {
	Name              *string          `json:"name" validate:"omitempty,min=2,max=100"`
	AdminName         *string          `json:"adminName" validate:"omitempty,min=2,max=50"`
	AdminEmail        *string          `json:"adminEmail" validate:"omitempty,email"`
	AdminPhone        *string          `json:"adminPhone" validate:"omitempty,phone"`
	Address           *string          `json:"address" validate:"omitempty,min=10,max=200"`
	Status            *Status          `json:"status" validate:"omitempty,oneof=active inactive"`
	IsPaymentRequired *bool            `json:"isPaymentRequired"`
	BillingAmount     *decimal.Decimal `json:"billingAmount"`
	NextDueDate       *core.Date       `json:"nextDueDate"`
	AccessBlocked     *bool            `json:"accessBlocked"`
	PaymentNotes      *string          `json:"paymentNotes" validate:"omitempty,max=500"`
}

func (ul *UpdateLibrary) Validate(validate *validator.Validate) error {
	clean := func(s *string, lower ...bool) {
		if s != nil {
			*s = core.CleanString(*s, lower...)
		}
	}
	clean(ul.Name)
	clean(ul.AdminName)
	clean(ul.AdminEmail, true /* lower */)
	clean(ul.AdminPhone)
	clean(ul.Address)
	clean(ul.PaymentNotes)

	if err := validate.Struct(ul); err != nil {
		return err
	}
	if ul.BillingAmount != nil && ul.BillingAmount.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "billingAmount", Error: errNegativeAmount})
	}
	return nil
}

// MarkPaid is the founder's "payment received" action.
type MarkPaid struct {
	PaymentNotes string `json:"paymentNotes" validate:"max=500"`
}

func (mp *MarkPaid) Validate(validate *validator.Validate) error {
	mp.PaymentNotes = core.CleanString(mp.PaymentNotes)
	return validate.Struct(mp)
}

// ChangePassword is a library admin changing their own password.
type ChangePassword struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error { return validate.Struct(cp) }

// QueryFilter narrows the founder's library list. Search does a case-insensitive match on
// one of Name, Code, AdminName or AdminEmail.
type QueryFilter struct {
	Status            Status `query:"status"`
	AccessBlocked     *bool  `query:"accessBlocked"`
	IsPaymentRequired *bool  `query:"isPaymentRequired"`
	Search            string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}

// Orderings accepted by the library list, mapped to their columns.
var OrderingFields = map[string]string{
	"name":          "name",
	"code":          "code",
	"createdAt":     "created_at",
	"billingAmount": "billing_amount",
	"nextDueDate":   "next_due_date",
	"status":        "status",
}

// DefaultOrdering lists the newest libraries first.
var DefaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
