package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/student"
)

type sequencer struct {
	db *sqlx.DB
}

var _ student.Sequencer = (*sequencer)(nil) // interface compliance check

func NewSequencer(db *sqlx.DB) student.Sequencer {
	return &sequencer{db: db}
}

// Next increments the counter row in place. A missing row is inserted with seed+1; when two callers
// race on the insert, the loser's conflict clause increments the winner's row instead.
func (seq *sequencer) Next(ctx context.Context, name string, seed func(context.Context) (int, error)) (int, error) {
	var v int
	err := seq.db.GetContext(ctx, &v, `UPDATE sequences SET value = value + 1 WHERE name = $1 RETURNING value`, name)
	if err == nil {
		return v, nil
	}
	if err != sql.ErrNoRows {
		return 0, errors.Wrap(err, "incrementing sequence")
	}

	start, err := seed(ctx)
	if err != nil {
		return 0, err
	}
	q := `INSERT INTO sequences (name, value) VALUES ($1, $2 + 1)
		ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1 RETURNING value`
	if err = seq.db.GetContext(ctx, &v, q, name, start); err != nil {
		return 0, errors.Wrap(err, "initializing sequence")
	}
	return v, nil
}
