package library_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core/billing"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/testutil"
)

var ctxBg = context.Background()

func TestService_Create(t *testing.T) {
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	library.NowFunc = func() time.Time { return now }
	defer func() { library.NowFunc = time.Now }()

	a := testutil.NewApp()

	lib1 := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")
	assert.Equal(t, "LIB001", lib1.Code)
	assert.Equal(t, library.StatusActive, lib1.Status)
	assert.True(t, lib1.IsPaymentRequired)
	require.NotNil(t, lib1.NextDueDate)
	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), *lib1.NextDueDate) // Jan 31 + 1 month
	assert.Equal(t, billing.Current, lib1.BillingState)

	// generation starts from the count (LIB003 here) and skips taken codes
	custom := testutil.CreateLibrary(t, a.LibrarySvc, "beta", "lib003")
	assert.Equal(t, "LIB003", custom.Code)
	lib3 := testutil.CreateLibrary(t, a.LibrarySvc, "gamma", "")
	assert.Equal(t, "LIB004", lib3.Code)

	free := testutil.NewLibrary("delta", "")
	notRequired := false
	free.IsPaymentRequired = &notRequired
	lib4, err := a.LibrarySvc.Create(ctxBg, free)
	require.NoError(t, err)
	assert.Nil(t, lib4.NextDueDate)

	_, err = a.LibrarySvc.Create(ctxBg, testutil.NewLibrary("alpha", ""))
	assert.Error(t, err, "admin email is taken")

	acts, err := a.LibrarySvc.RecentActivities(ctxBg)
	require.NoError(t, err)
	require.Len(t, acts, 4)
	assert.Equal(t, library.ActionCreated, acts[0].Action)
	assert.Equal(t, "delta", acts[0].LibraryName)
}

func TestService_BillingLifecycle(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	library.NowFunc = func() time.Time { return now }
	defer func() { library.NowFunc = time.Now }()

	a := testutil.NewApp()
	lib := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")

	_, err := a.LibrarySvc.Authenticate(ctxBg, "ALPHA@example.com", "secret123")
	require.NoError(t, err)
	_, err = a.LibrarySvc.Authenticate(ctxBg, "alpha@example.com", "wrong")
	assert.Equal(t, library.ErrInvalidCredentials, err)
	_, err = a.LibrarySvc.Authenticate(ctxBg, "ghost@example.com", "secret123")
	assert.Equal(t, library.ErrInvalidCredentials, err)

	blocked, err := a.LibrarySvc.Block(ctxBg, lib.ID)
	require.NoError(t, err)
	assert.True(t, blocked.AccessBlocked)
	assert.Equal(t, billing.Blocked, blocked.BillingState)

	_, err = a.LibrarySvc.CheckAccess(ctxBg, lib.ID)
	assert.Equal(t, library.ErrAccessBlocked, err)
	_, err = a.LibrarySvc.Authenticate(ctxBg, "alpha@example.com", "secret123")
	assert.Equal(t, library.ErrAccessBlocked, err)

	now = now.Add(48 * time.Hour)
	paid, err := a.LibrarySvc.MarkPaid(ctxBg, lib.ID, library.MarkPaid{PaymentNotes: "UPI ref 42"})
	require.NoError(t, err)
	assert.False(t, paid.AccessBlocked)
	require.NotNil(t, paid.LastPaidDate)
	assert.Equal(t, now, *paid.LastPaidDate)
	assert.Equal(t, now.AddDate(0, 1, 0), *paid.NextDueDate)
	assert.Equal(t, "UPI ref 42", paid.PaymentNotes)

	paid, err = a.LibrarySvc.MarkPaid(ctxBg, lib.ID, library.MarkPaid{})
	require.NoError(t, err)
	assert.Equal(t, "UPI ref 42", paid.PaymentNotes, "empty notes keep the previous ones")

	got, err := a.LibrarySvc.CheckAccess(ctxBg, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.Current, got.BillingState)

	// overdue without being blocked: the gate still lets the tenant in
	now = now.AddDate(0, 2, 0)
	got, err = a.LibrarySvc.CheckAccess(ctxBg, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.Overdue, got.BillingState)

	_, err = a.LibrarySvc.Block(ctxBg, lib.ID)
	require.NoError(t, err)
	once, err := a.LibrarySvc.Unblock(ctxBg, lib.ID)
	require.NoError(t, err)
	assert.False(t, once.AccessBlocked)
	assert.Equal(t, paid.LastPaidDate, once.LastPaidDate)
	assert.Equal(t, paid.NextDueDate, once.NextDueDate)
	assert.Equal(t, paid.PaymentNotes, once.PaymentNotes)

	twice, err := a.LibrarySvc.Unblock(ctxBg, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	stored, err := a.LibrarySvc.Get(ctxBg, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, once, stored)

	_, err = a.LibrarySvc.Block(ctxBg, "nope")
	assert.Equal(t, library.ErrNotFound, err)
}

func TestService_ConcurrentBlockAndMarkPaid(t *testing.T) {
	a := testutil.NewApp()
	lib := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = a.LibrarySvc.Block(ctxBg, lib.ID)
		}()
		go func() {
			defer wg.Done()
			_, _ = a.LibrarySvc.MarkPaid(ctxBg, lib.ID, library.MarkPaid{})
		}()
	}
	wg.Wait()

	// last write wins, and the record stays consistent either way
	got, err := a.LibrarySvc.Get(ctxBg, lib.ID)
	require.NoError(t, err)
	if !got.AccessBlocked {
		assert.NotNil(t, got.LastPaidDate)
	}
}

func TestService_Stats(t *testing.T) {
	a := testutil.NewApp()
	lib1 := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")
	lib2 := testutil.CreateLibrary(t, a.LibrarySvc, "beta", "")
	testutil.CreateLibrary(t, a.LibrarySvc, "gamma", "")

	_, err := a.LibrarySvc.Block(ctxBg, lib1.ID)
	require.NoError(t, err)
	_, err = a.LibrarySvc.MarkPaid(ctxBg, lib2.ID, library.MarkPaid{})
	require.NoError(t, err)
	inactive := library.StatusInactive
	_, err = a.LibrarySvc.Update(ctxBg, lib2.ID, library.UpdateLibrary{Status: &inactive})
	require.NoError(t, err)

	stats, err := a.LibrarySvc.Stats(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, library.Stats{
		TotalLibraries:   3,
		ActiveLibraries:  2,
		BlockedLibraries: 1,
		UnpaidLibraries:  2, // never paid: alpha and gamma
	}, stats)
}

func TestService_Passwords(t *testing.T) {
	a := testutil.NewApp()
	lib := testutil.CreateLibrary(t, a.LibrarySvc, "alpha", "")

	err := a.LibrarySvc.ChangePassword(ctxBg, lib.ID, library.ChangePassword{OldPassword: "nope", NewPassword: "secret456"})
	assert.Equal(t, library.ErrWrongPassword, err)

	require.NoError(t, a.LibrarySvc.ChangePassword(ctxBg, lib.ID, library.ChangePassword{OldPassword: "secret123", NewPassword: "secret456"}))
	_, err = a.LibrarySvc.Authenticate(ctxBg, lib.AdminEmail, "secret456")
	assert.NoError(t, err)

	require.NoError(t, a.LibrarySvc.ResetPassword(ctxBg, " Alpha@Example.com", "secret789"))
	_, err = a.LibrarySvc.Authenticate(ctxBg, lib.AdminEmail, "secret789")
	assert.NoError(t, err)

	assert.Equal(t, library.ErrNotFound, a.LibrarySvc.ResetPassword(ctxBg, "ghost@example.com", "secret789"))
}
