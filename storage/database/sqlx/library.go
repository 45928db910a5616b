package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/library"
)

const libraryColumns = `id, name, code, admin_name, admin_email, admin_phone, password_hash, address, status,
	is_payment_required, billing_amount, billing_start_date, last_paid_date, next_due_date, access_blocked,
	payment_notes, profile_image, created_at, updated_at`

type libraryRepository struct {
	db *sqlx.DB
}

var _ library.Repository = (*libraryRepository)(nil) // interface compliance check

func NewLibraryRepository(db *sqlx.DB) library.Repository {
	return &libraryRepository{db: db}
}

func (repo *libraryRepository) CreateLibrary(ctx context.Context, lib library.Library) (library.Library, error) {
	q := `INSERT INTO libraries (` + libraryColumns + `) VALUES (
		:id, :name, :code, :admin_name, :admin_email, :admin_phone, :password_hash, :address, :status,
		:is_payment_required, :billing_amount, :billing_start_date, :last_paid_date, :next_due_date, :access_blocked,
		:payment_notes, :profile_image, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, lib); err != nil {
		return library.Library{}, trapUniqueErr(err, "inserting library")
	}
	return lib, nil
}

func (repo *libraryRepository) getBy(ctx context.Context, column, value string) (library.Library, error) {
	var lib library.Library
	q := `SELECT ` + libraryColumns + ` FROM libraries WHERE ` + column + ` = $1`
	if err := repo.db.GetContext(ctx, &lib, q, value); err != nil {
		return library.Library{}, trapNoRowsErr(err, library.ErrNotFound, "finding library by "+column)
	}
	return lib, nil
}

func (repo *libraryRepository) GetLibraryByID(ctx context.Context, id string) (library.Library, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *libraryRepository) GetLibraryByAdminEmail(ctx context.Context, email string) (library.Library, error) {
	return repo.getBy(ctx, "admin_email", email)
}

func (repo *libraryRepository) LibraryCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM libraries WHERE code = $1)`, code); err != nil {
		return false, errors.Wrap(err, "checking library code")
	}
	return exists, nil
}

func (repo *libraryRepository) CountLibraries(ctx context.Context) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM libraries`); err != nil {
		return 0, errors.Wrap(err, "counting libraries")
	}
	return n, nil
}

func (repo *libraryRepository) QueryLibraries(ctx context.Context, filter library.QueryFilter, orderings []core.DBOrdering) ([]library.Library, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.AccessBlocked != nil {
		where = append(where, "access_blocked = "+arg(*filter.AccessBlocked))
	}
	if filter.IsPaymentRequired != nil {
		where = append(where, "is_payment_required = "+arg(*filter.IsPaymentRequired))
	}
	// libraries with Name, Code, AdminName or AdminEmail matching the search keyword
	if filter.Search != "" {
		n := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR code ILIKE %[1]s OR admin_name ILIKE %[1]s OR admin_email ILIKE %[1]s)", n))
	}

	q := `SELECT ` + libraryColumns + ` FROM libraries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(orderings, library.DefaultOrdering)

	libs := make([]library.Library, 0)
	if err := repo.db.SelectContext(ctx, &libs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying libraries")
	}
	return libs, nil
}

func (repo *libraryRepository) UpdateLibrary(ctx context.Context, lib library.Library) (library.Library, error) {
	q := `UPDATE libraries SET
		name = :name, admin_name = :admin_name, admin_email = :admin_email, admin_phone = :admin_phone,
		address = :address, status = :status, is_payment_required = :is_payment_required,
		billing_amount = :billing_amount, next_due_date = :next_due_date, access_blocked = :access_blocked,
		payment_notes = :payment_notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, lib)
	if err != nil {
		return library.Library{}, trapUniqueErr(err, "updating library")
	}
	if err = checkAffected(res, library.ErrNotFound, "updating library"); err != nil {
		return library.Library{}, err
	}
	return repo.GetLibraryByID(ctx, lib.ID)
}

func (repo *libraryRepository) SetAccessBlocked(ctx context.Context, id string, blocked bool, now time.Time) (library.Library, error) {
	var lib library.Library
	q := `UPDATE libraries SET access_blocked = $2, updated_at = $3 WHERE id = $1 RETURNING ` + libraryColumns
	if err := repo.db.GetContext(ctx, &lib, q, id, blocked, now); err != nil {
		return library.Library{}, trapNoRowsErr(err, library.ErrNotFound, "setting library access")
	}
	return lib, nil
}

func (repo *libraryRepository) MarkPaid(ctx context.Context, id string, paidAt, nextDue time.Time, notes *string) (library.Library, error) {
	var lib library.Library
	q := `UPDATE libraries SET
		access_blocked = false, last_paid_date = $2, next_due_date = $3,
		payment_notes = COALESCE($4, payment_notes), updated_at = $2
		WHERE id = $1 RETURNING ` + libraryColumns
	if err := repo.db.GetContext(ctx, &lib, q, id, paidAt, nextDue, notes); err != nil {
		return library.Library{}, trapNoRowsErr(err, library.ErrNotFound, "marking library paid")
	}
	return lib, nil
}

func (repo *libraryRepository) UpdateLibraryPassword(ctx context.Context, id string, hash []byte) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE libraries SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return trapNoRowsErr(err, library.ErrNotFound, "updating library password")
	}
	return checkAffected(res, library.ErrNotFound, "updating library password")
}

func (repo *libraryRepository) SetLibraryProfileImage(ctx context.Context, id, url string) (library.Library, error) {
	var lib library.Library
	q := `UPDATE libraries SET profile_image = $2 WHERE id = $1 RETURNING ` + libraryColumns
	if err := repo.db.GetContext(ctx, &lib, q, id, url); err != nil {
		return library.Library{}, trapNoRowsErr(err, library.ErrNotFound, "setting library profile image")
	}
	return lib, nil
}

func (repo *libraryRepository) AddActivity(ctx context.Context, act library.Activity) error {
	q := `INSERT INTO activities (id, action, library_id, library_name, created_at)
		VALUES (:id, :action, :library_id, :library_name, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, act); err != nil {
		return errors.Wrap(err, "inserting activity")
	}
	return nil
}

func (repo *libraryRepository) RecentActivities(ctx context.Context, limit int) ([]library.Activity, error) {
	acts := make([]library.Activity, 0)
	q := `SELECT id, action, library_id, library_name, created_at FROM activities ORDER BY created_at DESC LIMIT $1`
	if err := repo.db.SelectContext(ctx, &acts, q, limit); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return acts, nil
}

// orderBy renders orderings whose fields were already mapped to known columns.
func orderBy(orderings, fallback []core.DBOrdering) string {
	if len(orderings) == 0 {
		orderings = fallback
	}
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
