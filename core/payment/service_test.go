package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/core/student"
	"github.com/trezcool/libdesk/testutil"
)

var ctxBg = context.Background()

func date(y int, m time.Month, d int) *core.Date {
	return core.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func newPayment(studentID string, amt int64, method payment.Method, paid *core.Date) payment.NewPayment {
	return payment.NewPayment{
		StudentID:     studentID,
		Amount:        amount(amt),
		PaymentMethod: method,
		FromMonth:     date(2025, 6, 1),
		ToMonth:       date(2025, 6, 30),
		NextDueDate:   date(2025, 7, 1),
		PaidDate:      paid,
	}
}

func setup(t *testing.T) (*testutil.App, library.Library, student.Student) {
	a := testutil.NewApp()
	lib := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")
	s := testutil.CreateStudent(t, a.StudentSvc, lib, "Meera", "9000000001", "100000000001", time.Now())
	return a, lib, s
}

func TestNewPayment_Validate(t *testing.T) {
	a := testutil.NewApp()

	np := newPayment("s1", 100, " CASH ", nil)
	require.NoError(t, np.Validate(a.Validate))
	assert.Equal(t, payment.MethodCash, np.PaymentMethod)

	np = newPayment("s1", 100, "", nil)
	np.FromMonth = date(2025, 8, 1)
	np.ToMonth = date(2025, 6, 1)
	err := np.Validate(a.Validate)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "fromMonth cannot be after toMonth", vErr.Error())

	np = newPayment("s1", -1, "", nil)
	assert.Error(t, np.Validate(a.Validate))

	np = newPayment("s1", 100, "", nil)
	np.Discount = amount(-5)
	assert.Error(t, np.Validate(a.Validate))

	np = newPayment("s1", 100, "", nil)
	np.ToMonth = np.FromMonth // a single day is a valid range
	assert.NoError(t, np.Validate(a.Validate))

	np = newPayment("s1", 100, "", nil)
	np.NextDueDate = &core.Date{} // sent as ""
	fErrs, ok := np.Validate(a.Validate).(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, fErrs, 1)
	assert.Equal(t, "nextDueDate", fErrs[0].Field())
	assert.Equal(t, "required", fErrs[0].Tag())
}

func TestService_Create(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	payment.NowFunc = func() time.Time { return now }
	defer func() { payment.NowFunc = time.Now }()

	a, lib, s := setup(t)

	p, err := a.PaymentSvc.Create(ctxBg, lib.ID, newPayment(s.ID, 600, "", nil))
	require.NoError(t, err)
	assert.Equal(t, payment.MethodCash, p.PaymentMethod)
	assert.True(t, p.Discount.IsZero())
	assert.Equal(t, now, p.PaidDate)

	got, err := a.StudentSvc.Get(ctxBg, lib.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 1).Time, *got.NextDueDate)
	assert.Equal(t, now, *got.LastPaidDate)

	events := a.Notifier.Events()
	last := events[len(events)-1]
	assert.Equal(t, core.EventPaymentCreated, last.Name)
	assert.Equal(t, lib.ID, last.LibraryID)

	other := testutil.CreateLibrary(t, a.LibrarySvc, "beta", "")
	_, err = a.PaymentSvc.Create(ctxBg, other.ID, newPayment(s.ID, 600, "", nil))
	assert.Equal(t, student.ErrNotFound, err)
}

func TestService_Update(t *testing.T) {
	a, lib, s := setup(t)
	p, err := a.PaymentSvc.Create(ctxBg, lib.ID, newPayment(s.ID, 600, payment.MethodOnline, nil))
	require.NoError(t, err)

	updated, err := a.PaymentSvc.Update(ctxBg, lib.ID, p.ID, payment.UpdatePayment{
		Amount:      amount(550),
		Discount:    amount(50),
		NextDueDate: date(2025, 9, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "550", updated.Amount.String())
	assert.Equal(t, "50", updated.Discount.String())
	assert.Equal(t, payment.MethodOnline, updated.PaymentMethod)

	// corrections do not move the student's schedule
	got, err := a.StudentSvc.Get(ctxBg, lib.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 7, 1).Time, *got.NextDueDate)

	// the range is checked against the stored bounds
	_, err = a.PaymentSvc.Update(ctxBg, lib.ID, p.ID, payment.UpdatePayment{ToMonth: date(2025, 5, 1)})
	_, ok := err.(*core.ValidationError)
	assert.True(t, ok, "got %v", err)

	_, err = a.PaymentSvc.Update(ctxBg, "other", p.ID, payment.UpdatePayment{Amount: amount(1)})
	assert.Equal(t, payment.ErrNotFound, err)
}

func TestService_MonthlyCollection(t *testing.T) {
	a, lib, s := setup(t)

	for _, np := range []payment.NewPayment{
		newPayment(s.ID, 100, payment.MethodCash, date(2025, 6, 1)),
		newPayment(s.ID, 50, payment.MethodOnline, date(2025, 6, 30)),
		newPayment(s.ID, 25, payment.MethodCash, date(2025, 6, 15)),
		newPayment(s.ID, 999, payment.MethodCash, date(2025, 5, 31)),
		newPayment(s.ID, 7, payment.MethodOnline, date(2025, 7, 1)),
	} {
		_, err := a.PaymentSvc.Create(ctxBg, lib.ID, np)
		require.NoError(t, err)
	}

	june, err := a.PaymentSvc.MonthlyCollection(ctxBg, lib.ID, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "125", june.Cash.String())
	assert.Equal(t, "50", june.Online.String())
	assert.Equal(t, "175", june.Total.String())

	may, err := a.PaymentSvc.MonthlyCollection(ctxBg, lib.ID, time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "999", may.Total.String())

	other := testutil.CreateLibrary(t, a.LibrarySvc, "beta", "")
	empty, err := a.PaymentSvc.MonthlyCollection(ctxBg, other.ID, time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
}

func TestService_Recent(t *testing.T) {
	now := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	payment.NowFunc = func() time.Time { return now }
	defer func() { payment.NowFunc = time.Now }()

	a, lib, s := setup(t)
	for _, paid := range []*core.Date{date(2025, 6, 13), date(2025, 6, 12), date(2025, 6, 19)} {
		_, err := a.PaymentSvc.Create(ctxBg, lib.ID, newPayment(s.ID, 10, "", paid))
		require.NoError(t, err)
	}

	recent, err := a.PaymentSvc.Recent(ctxBg, lib.ID)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, date(2025, 6, 19).Time, recent[0].PaidDate)
	assert.Equal(t, date(2025, 6, 13).Time, recent[1].PaidDate)
	assert.Equal(t, s.RollNumber, recent[0].RollNumber)
}

func TestTally(t *testing.T) {
	c := payment.Tally([]payment.MethodTotal{
		{Method: payment.MethodCash, Total: decimal.NewFromInt(100)},
		{Method: "upi", Total: decimal.NewFromInt(40)},
		{Method: payment.MethodOnline, Total: decimal.RequireFromString("12.5")},
	})
	assert.Equal(t, "100", c.Cash.String())
	assert.Equal(t, "12.5", c.Online.String())
	assert.Equal(t, "112.5", c.Total.String())

	assert.True(t, payment.Tally(nil).Total.IsZero())
}

func TestGroupByMethod(t *testing.T) {
	totals := payment.GroupByMethod([]payment.Payment{
		{PaymentMethod: payment.MethodOnline, Amount: decimal.NewFromInt(5)},
		{PaymentMethod: payment.MethodCash, Amount: decimal.NewFromInt(1)},
		{PaymentMethod: payment.MethodOnline, Amount: decimal.NewFromInt(2)},
	})
	require.Len(t, totals, 2)
	assert.Equal(t, payment.MethodCash, totals[0].Method)
	assert.Equal(t, "7", totals[1].Total.String())
}
