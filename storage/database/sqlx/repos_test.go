package sqlxrepos

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/library"
	"github.com/trezcool/libdesk/core/otp"
	"github.com/trezcool/libdesk/core/payment"
	"github.com/trezcool/libdesk/core/student"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func libraryRow(id string, blocked bool, paid *time.Time) *sqlmock.Rows {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	var lastPaid interface{}
	if paid != nil {
		lastPaid = *paid
	}
	return sqlmock.NewRows([]string{
		"id", "name", "code", "admin_name", "admin_email", "admin_phone", "password_hash", "address", "status",
		"is_payment_required", "billing_amount", "billing_start_date", "last_paid_date", "next_due_date",
		"access_blocked", "payment_notes", "profile_image", "created_at", "updated_at",
	}).AddRow(
		id, "City Library", "CITY", "Asha", "asha@city.test", "+919812345678", []byte("hash"), "12 Main Road, Pune", "active",
		true, "499.00", now, lastPaid, now.AddDate(0, 1, 0),
		blocked, "", "", now, now,
	)
}

func TestCheckAffected(t *testing.T) {
	assert.NoError(t, checkAffected(sqlmock.NewResult(0, 1), student.ErrNotFound, "updating"))
	assert.Equal(t, student.ErrNotFound, checkAffected(sqlmock.NewResult(0, 0), student.ErrNotFound, "updating"))
	assert.True(t, core.IsShutdown(checkAffected(sqlmock.NewResult(0, 3), student.ErrNotFound, "updating")))
}

func TestTrapNoRowsErr(t *testing.T) {
	assert.Equal(t, student.ErrNotFound, trapNoRowsErr(sql.ErrNoRows, student.ErrNotFound, "finding"))
	assert.Equal(t, student.ErrNotFound, trapNoRowsErr(&pq.Error{Code: invalidTextRepresentation}, student.ErrNotFound, "finding"))

	err := trapNoRowsErr(&pq.Error{Code: "08006"}, student.ErrNotFound, "finding")
	assert.NotEqual(t, student.ErrNotFound, err)
	assert.Contains(t, err.Error(), "finding")
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	badUUID := &pq.Error{Code: invalidTextRepresentation, Message: `invalid input syntax for type uuid: "abc"`}

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1 AND library_id = $2")).
		WithArgs("abc", "lib-1").
		WillReturnError(badUUID)
	_, err := NewStudentRepository(db).GetStudent(context.Background(), "lib-1", "abc")
	assert.Equal(t, student.ErrNotFound, err)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payments WHERE id = $1 AND library_id = $2")).
		WithArgs("abc", "lib-1").
		WillReturnError(badUUID)
	err = NewPaymentRepository(db).DeletePayment(context.Background(), "lib-1", "abc")
	assert.Equal(t, payment.ErrNotFound, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrapUniqueErr(t *testing.T) {
	tests := []struct {
		constraint string
		wantField  string
	}{
		{"libraries_code_key", "code"},
		{"libraries_admin_email_key", "adminEmail"},
		{"students_mobile_key", "mobile"},
		{"students_aadhar_key", "aadhar"},
		{"students_roll_number_key", "rollNumber"},
		{"founders_email_key", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := trapUniqueErr(&pq.Error{Code: uniqueViolation, Constraint: tt.constraint}, "inserting")
			var conflict *core.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.wantField, conflict.Field)
		})
	}

	t.Run("other errors are wrapped", func(t *testing.T) {
		err := trapUniqueErr(&pq.Error{Code: "23503"}, "inserting")
		_, ok := err.(*core.ConflictError)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "inserting")
	})
}

func TestLibraryRepository_GetLibraryByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLibraryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM libraries WHERE id = $1")).
		WithArgs("lib-1").
		WillReturnRows(libraryRow("lib-1", false, nil))

	lib, err := repo.GetLibraryByID(context.Background(), "lib-1")
	require.NoError(t, err)
	assert.Equal(t, "CITY", lib.Code)
	assert.True(t, lib.BillingAmount.Equal(decimal.NewFromInt(499)))
	assert.Nil(t, lib.LastPaidDate)
	require.NotNil(t, lib.NextDueDate)

	mock.ExpectQuery(regexp.QuoteMeta("FROM libraries WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetLibraryByID(context.Background(), "missing")
	assert.Equal(t, library.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepository_CreateLibraryConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLibraryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO libraries")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "libraries_admin_email_key"})

	_, err := repo.CreateLibrary(context.Background(), library.Library{ID: "lib-1", Code: "CITY"})
	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "adminEmail", conflict.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepository_QueryLibraries(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLibraryRepository(db)

	blocked := true
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND access_blocked = $2 AND (name ILIKE $3")).
		WithArgs(library.StatusActive, true, "%city%").
		WillReturnRows(libraryRow("lib-1", true, nil))

	libs, err := repo.QueryLibraries(
		context.Background(),
		library.QueryFilter{Status: library.StatusActive, AccessBlocked: &blocked, Search: "city"},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.True(t, libs[0].AccessBlocked)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name ASC, created_at DESC")).
		WillReturnRows(libraryRow("lib-1", false, nil))

	_, err = repo.QueryLibraries(context.Background(), library.QueryFilter{}, []core.DBOrdering{
		{Field: "name", Ascending: true},
		{Field: "created_at"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepository_MarkPaid(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLibraryRepository(db)

	paidAt := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	nextDue := paidAt.AddDate(0, 1, 0)
	mock.ExpectQuery(regexp.QuoteMeta("access_blocked = false, last_paid_date = $2, next_due_date = $3")).
		WithArgs("lib-1", paidAt, nextDue, nil).
		WillReturnRows(libraryRow("lib-1", false, &paidAt))

	lib, err := repo.MarkPaid(context.Background(), "lib-1", paidAt, nextDue, nil)
	require.NoError(t, err)
	assert.False(t, lib.AccessBlocked)
	require.NotNil(t, lib.LastPaidDate)
	assert.True(t, lib.LastPaidDate.Equal(paidAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_LastRollNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT roll_number FROM students WHERE library_id = $1 AND roll_number LIKE $2")).
		WithArgs("lib-1", "CITY%").
		WillReturnRows(sqlmock.NewRows([]string{"roll_number"}).AddRow("CITY0041"))

	roll, err := repo.LastRollNumber(context.Background(), "lib-1", "CITY")
	require.NoError(t, err)
	assert.Equal(t, "CITY0041", roll)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT roll_number FROM students WHERE library_id = $1 AND roll_number LIKE $2")).
		WithArgs("lib-2", "NEW%").
		WillReturnError(sql.ErrNoRows)

	roll, err = repo.LastRollNumber(context.Background(), "lib-2", "NEW")
	require.NoError(t, err)
	assert.Equal(t, "", roll)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_ScopedWrites(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1 AND library_id = $2")).
		WithArgs("stu-1", "other-lib").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteStudent(context.Background(), "other-lib", "stu-1")
	assert.Equal(t, student.ErrNotFound, err)

	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET next_due_date = $3, last_paid_date = $4")).
		WithArgs("stu-1", "lib-1", now.AddDate(0, 1, 0), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.RecordPayment(context.Background(), "lib-1", "stu-1", now.AddDate(0, 1, 0), now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_CreateStudentConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "students_aadhar_key"})

	_, err := repo.CreateStudent(context.Background(), student.Student{ID: "stu-1"})
	var conflict *core.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "aadhar", conflict.Field)
}

func TestPaymentRepository_TotalsByMethod(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPaymentRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payment_method, SUM(amount) AS total FROM payments")).
		WithArgs("lib-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"payment_method", "total"}).
			AddRow("cash", "125.00").
			AddRow("online", "50.00"))

	totals, err := repo.TotalsByMethod(context.Background(), "lib-1", from, to)
	require.NoError(t, err)

	c := payment.Tally(totals)
	assert.True(t, c.Cash.Equal(decimal.NewFromInt(125)))
	assert.True(t, c.Online.Equal(decimal.NewFromInt(50)))
	assert.True(t, c.Total.Equal(decimal.NewFromInt(175)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_QueryPaymentsRange(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPaymentRepository(db)

	from, to := core.NewDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), core.NewDate(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(regexp.QuoteMeta("AND p.paid_date BETWEEN $2 AND $3")).
		WithArgs("lib-1", from.Time, to.Time).
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "payment_method", "student_name", "student_roll_number"}).
			AddRow("pay-1", "100", "cash", "Ravi", "CITY0001"))

	payments, err := repo.QueryPayments(context.Background(), "lib-1", payment.QueryFilter{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "Ravi", payments[0].StudentName)
	assert.Equal(t, "CITY0001", payments[0].StudentRollNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequencer_Next(t *testing.T) {
	db, mock := setupMockDB(t)
	seq := NewSequencer(db)

	t.Run("existing counter", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE sequences SET value = value + 1")).
			WithArgs("roll:CITY").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(8))

		n, err := seq.Next(context.Background(), "roll:CITY", func(context.Context) (int, error) {
			t.Fatal("seed must not be called")
			return 0, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 8, n)
	})

	t.Run("missing counter is seeded", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE sequences SET value = value + 1")).
			WithArgs("roll:NEW").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sequences (name, value) VALUES ($1, $2 + 1)")).
			WithArgs("roll:NEW", 41).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))

		n, err := seq.Next(context.Background(), "roll:NEW", func(context.Context) (int, error) { return 41, nil })
		require.NoError(t, err)
		assert.Equal(t, 42, n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOTPStore_Find(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewOTPStore(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM otps WHERE email = $1 AND code = $2")).
		WithArgs("a@b.test", "123456").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := store.Find(context.Background(), "a@b.test", "123456")
	require.NoError(t, err)
	assert.False(t, ok)

	expires := time.Date(2024, 3, 10, 9, 5, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM otps WHERE email = $1 AND code = $2")).
		WithArgs("a@b.test", "654321").
		WillReturnRows(sqlmock.NewRows([]string{"email", "code", "expires_at", "created_at"}).
			AddRow("a@b.test", "654321", expires, expires.Add(-5*time.Minute)))

	o, ok, err := store.Find(context.Background(), "a@b.test", "654321")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, otp.OTP{Email: "a@b.test", Code: "654321", ExpiresAt: expires, CreatedAt: expires.Add(-5 * time.Minute)}, o)
	assert.NoError(t, mock.ExpectationsWereMet())
}
