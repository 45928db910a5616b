package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/dashboard"
	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/testutil"
)

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	dashboard.NowFunc = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	defer func() { dashboard.NowFunc = time.Now }()

	a := testutil.NewApp()
	lib := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")
	s1 := testutil.CreateStudent(t, a.StudentSvc, lib, "Meera", "9000000001", "100000000001", time.Now())
	testutil.CreateStudent(t, a.StudentSvc, lib, "Kabir", "9000000002", "100000000002", time.Now())

	pay := func(amt int64, method payment.Method, paid time.Time) {
		d := decimal.NewFromInt(amt)
		_, err := a.PaymentSvc.Create(ctx, lib.ID, payment.NewPayment{
			StudentID:     s1.ID,
			Amount:        &d,
			PaymentMethod: method,
			FromMonth:     core.NewDate(paid),
			ToMonth:       core.NewDate(paid),
			NextDueDate:   core.NewDate(paid.AddDate(0, 1, 0)),
			PaidDate:      core.NewDate(paid),
		})
		require.NoError(t, err)
	}
	pay(100, payment.MethodCash, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	pay(50, payment.MethodOnline, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	pay(25, payment.MethodCash, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	pay(80, payment.MethodOnline, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))

	stats, err := a.DashboardSvc.Stats(ctx, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, "125", stats.CurrentMonthCollection.Cash.String())
	assert.Equal(t, "50", stats.CurrentMonthCollection.Online.String())
	assert.Equal(t, "175", stats.CurrentMonthCollection.Total.String())
	assert.Equal(t, "80", stats.LastMonthCollection.Total.String())
	assert.True(t, stats.LastMonthCollection.Cash.IsZero())
}
