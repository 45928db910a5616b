package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/libdesk/core/founder"
)

const founderColumns = `id, name, email, password_hash, created_at`

type founderRepository struct {
	db *sqlx.DB
}

var _ founder.Repository = (*founderRepository)(nil) // interface compliance check

func NewFounderRepository(db *sqlx.DB) founder.Repository {
	return &founderRepository{db: db}
}

func (repo *founderRepository) CreateFounder(ctx context.Context, f founder.Founder) (founder.Founder, error) {
	q := `INSERT INTO founders (` + founderColumns + `) VALUES (:id, :name, :email, :password_hash, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, f); err != nil {
		return founder.Founder{}, trapUniqueErr(err, "inserting founder")
	}
	return f, nil
}

func (repo *founderRepository) GetFounderByID(ctx context.Context, id string) (founder.Founder, error) {
	var f founder.Founder
	q := `SELECT ` + founderColumns + ` FROM founders WHERE id = $1`
	if err := repo.db.GetContext(ctx, &f, q, id); err != nil {
		return founder.Founder{}, trapNoRowsErr(err, founder.ErrNotFound, "finding founder by ID")
	}
	return f, nil
}

func (repo *founderRepository) GetFounderByEmail(ctx context.Context, email string) (founder.Founder, error) {
	var f founder.Founder
	q := `SELECT ` + founderColumns + ` FROM founders WHERE email = $1`
	if err := repo.db.GetContext(ctx, &f, q, email); err != nil {
		return founder.Founder{}, trapNoRowsErr(err, founder.ErrNotFound, "finding founder by email")
	}
	return f, nil
}

func (repo *founderRepository) UpdateFounderPassword(ctx context.Context, id string, hash []byte) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE founders SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return trapNoRowsErr(err, founder.ErrNotFound, "updating founder password")
	}
	return checkAffected(res, founder.ErrNotFound, "updating founder password")
}
