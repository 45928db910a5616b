package inmemdb

import (
	"context"

	"github.com/trezcool/libdesk/core/student"
)

type sequencer struct {
	db *DB
}

var _ student.Sequencer = (*sequencer)(nil) // interface compliance check

func NewSequencer(db *DB) student.Sequencer {
	return &sequencer{db: db}
}

// Next holds the sequence lock across seeding and incrementing, so concurrent callers never share a value.
func (seq *sequencer) Next(ctx context.Context, name string, seed func(context.Context) (int, error)) (int, error) {
	seq.db.seqMutex.Lock()
	defer seq.db.seqMutex.Unlock()

	v, ok := seq.db.sequences[name]
	if !ok {
		var err error
		if v, err = seed(ctx); err != nil {
			return 0, err
		}
	}
	v++
	seq.db.sequences[name] = v
	return v, nil
}
