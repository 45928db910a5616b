package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/student"
)

const studentColumns = `id, library_id, name, mobile, aadhar, roll_number, gender, date_of_birth, shift, address,
	father_name, email, joining_date, next_due_date, last_paid_date, profile_image, created_at`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO students (` + studentColumns + `) VALUES (
		:id, :library_id, :name, :mobile, :aadhar, :roll_number, :gender, :date_of_birth, :shift, :address,
		:father_name, :email, :joining_date, :next_due_date, :last_paid_date, :profile_image, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		return student.Student{}, trapUniqueErr(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, libraryID, id string) (student.Student, error) {
	var s student.Student
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND library_id = $2`
	if err := repo.db.GetContext(ctx, &s, q, id, libraryID); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, libraryID string, filter student.QueryFilter) ([]student.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students WHERE library_id = $1`
	args := []interface{}{libraryID}

	if filter.Shift != "" {
		args = append(args, filter.Shift)
		q += fmt.Sprintf(" AND shift = $%d", len(args))
	}
	// students with Name, RollNumber or Mobile matching the search keyword
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND (name ILIKE $%[1]d OR roll_number ILIKE $%[1]d OR mobile ILIKE $%[1]d)", len(args))
	}
	q += " ORDER BY created_at DESC"

	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `UPDATE students SET
		name = :name, mobile = :mobile, aadhar = :aadhar, gender = :gender, date_of_birth = :date_of_birth,
		shift = :shift, address = :address, father_name = :father_name, email = :email,
		joining_date = :joining_date, next_due_date = :next_due_date, last_paid_date = :last_paid_date
		WHERE id = :id AND library_id = :library_id`
	res, err := repo.db.NamedExecContext(ctx, q, s)
	if err != nil {
		return student.Student{}, trapUniqueErr(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound, "updating student"); err != nil {
		return student.Student{}, err
	}
	return repo.GetStudent(ctx, s.LibraryID, s.ID)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, libraryID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1 AND library_id = $2`, id, libraryID)
	if err != nil {
		return trapNoRowsErr(err, student.ErrNotFound, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound, "deleting student")
}

func (repo *studentRepository) CountStudents(ctx context.Context, libraryID string) (int, error) {
	var n int
	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM students WHERE library_id = $1`, libraryID); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return n, nil
}

func (repo *studentRepository) DueStudents(ctx context.Context, libraryID string, until time.Time) ([]student.DueStudent, error) {
	due := make([]student.DueStudent, 0)
	q := `SELECT id, name, roll_number, mobile, shift, next_due_date FROM students
		WHERE library_id = $1 AND next_due_date IS NOT NULL AND next_due_date <= $2`
	if err := repo.db.SelectContext(ctx, &due, q, libraryID, until); err != nil {
		return nil, errors.Wrap(err, "querying due students")
	}
	return due, nil
}

func (repo *studentRepository) LastRollNumber(ctx context.Context, libraryID, prefix string) (string, error) {
	var roll string
	q := `SELECT roll_number FROM students WHERE library_id = $1 AND roll_number LIKE $2
		ORDER BY created_at DESC LIMIT 1`
	if err := repo.db.GetContext(ctx, &roll, q, libraryID, prefix+"%"); err != nil {
		return "", trapNoRowsErr(err, nil, "finding last roll number")
	}
	return roll, nil
}

func (repo *studentRepository) RecordPayment(ctx context.Context, libraryID, id string, nextDue, lastPaid time.Time) error {
	q := `UPDATE students SET next_due_date = $3, last_paid_date = $4 WHERE id = $1 AND library_id = $2`
	res, err := repo.db.ExecContext(ctx, q, id, libraryID, nextDue, lastPaid)
	if err != nil {
		return trapNoRowsErr(err, student.ErrNotFound, "updating student fee dates")
	}
	return checkAffected(res, student.ErrNotFound, "updating student fee dates")
}

func (repo *studentRepository) SetStudentProfileImage(ctx context.Context, libraryID, id, url string) (student.Student, error) {
	var s student.Student
	q := `UPDATE students SET profile_image = $3 WHERE id = $1 AND library_id = $2 RETURNING ` + studentColumns
	if err := repo.db.GetContext(ctx, &s, q, id, libraryID, url); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "setting student profile image")
	}
	return s, nil
}
