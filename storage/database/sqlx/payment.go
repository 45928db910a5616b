package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/payment"
)

const paymentColumns = `id, library_id, student_id, amount, discount, payment_method, from_month, to_month,
	next_due_date, paid_date, notes, created_at, updated_at`

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	q := `INSERT INTO payments (` + paymentColumns + `) VALUES (
		:id, :library_id, :student_id, :amount, :discount, :payment_method, :from_month, :to_month,
		:next_due_date, :paid_date, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, p); err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, libraryID, id string) (payment.Payment, error) {
	var p payment.Payment
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND library_id = $2`
	if err := repo.db.GetContext(ctx, &p, q, id, libraryID); err != nil {
		return payment.Payment{}, trapNoRowsErr(err, payment.ErrNotFound, "finding payment")
	}
	return p, nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	var updated payment.Payment
	q := `UPDATE payments SET
		amount = $3, discount = $4, payment_method = $5, from_month = $6, to_month = $7,
		next_due_date = $8, notes = $9, updated_at = $10
		WHERE id = $1 AND library_id = $2 RETURNING ` + paymentColumns
	err := repo.db.GetContext(
		ctx, &updated, q,
		p.ID, p.LibraryID, p.Amount, p.Discount, p.PaymentMethod, p.FromMonth, p.ToMonth,
		p.NextDueDate, p.Notes, p.UpdatedAt,
	)
	if err != nil {
		return payment.Payment{}, trapNoRowsErr(err, payment.ErrNotFound, "updating payment")
	}
	return updated, nil
}

func (repo *paymentRepository) DeletePayment(ctx context.Context, libraryID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND library_id = $2`, id, libraryID)
	if err != nil {
		return trapNoRowsErr(err, payment.ErrNotFound, "deleting payment")
	}
	return checkAffected(res, payment.ErrNotFound, "deleting payment")
}

func (repo *paymentRepository) StudentPayments(ctx context.Context, libraryID, studentID string) ([]payment.Payment, error) {
	payments := make([]payment.Payment, 0)
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE library_id = $1 AND student_id = $2 ORDER BY from_month DESC`
	if err := repo.db.SelectContext(ctx, &payments, q, libraryID, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student payments")
	}
	return payments, nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, libraryID string, filter payment.QueryFilter) ([]payment.Payment, error) {
	q := `SELECT p.id, p.library_id, p.student_id, p.amount, p.discount, p.payment_method, p.from_month,
		p.to_month, p.next_due_date, p.paid_date, p.notes, p.created_at, p.updated_at,
		COALESCE(s.name, '') AS student_name, COALESCE(s.roll_number, '') AS student_roll_number
		FROM payments p LEFT JOIN students s ON s.id = p.student_id
		WHERE p.library_id = $1`
	args := []interface{}{libraryID}
	if from, to, ok := filter.Range(); ok {
		q += ` AND p.paid_date BETWEEN $2 AND $3`
		args = append(args, from, to)
	}
	q += ` ORDER BY p.paid_date DESC`

	payments := make([]payment.Payment, 0)
	if err := repo.db.SelectContext(ctx, &payments, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	return payments, nil
}

func (repo *paymentRepository) RecentPayments(ctx context.Context, libraryID string, since time.Time) ([]payment.RecentPayment, error) {
	recent := make([]payment.RecentPayment, 0)
	q := `SELECT p.id, s.name, s.roll_number, p.paid_date, p.amount, p.payment_method
		FROM payments p JOIN students s ON s.id = p.student_id
		WHERE p.library_id = $1 AND p.paid_date >= $2
		ORDER BY p.paid_date DESC`
	if err := repo.db.SelectContext(ctx, &recent, q, libraryID, since); err != nil {
		return nil, errors.Wrap(err, "querying recent payments")
	}
	return recent, nil
}

func (repo *paymentRepository) TotalsByMethod(ctx context.Context, libraryID string, from, to time.Time) ([]payment.MethodTotal, error) {
	totals := make([]payment.MethodTotal, 0)
	q := `SELECT payment_method, SUM(amount) AS total FROM payments
		WHERE library_id = $1 AND paid_date BETWEEN $2 AND $3
		GROUP BY payment_method ORDER BY payment_method`
	if err := repo.db.SelectContext(ctx, &totals, q, libraryID, from, to); err != nil {
		return nil, errors.Wrap(err, "summing payments")
	}
	return totals, nil
}
