package student

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const rollSequencePrefix = "roll:"

// Sequencer hands out strictly increasing integers per counter name, atomically.
type Sequencer interface {
	// Next increments the counter and returns its new value. A missing counter is first
	// initialized to the value returned by seed.
	Next(ctx context.Context, name string, seed func(context.Context) (int, error)) (int, error)
}

// FormatRoll builds a roll number from a library code and a sequence number: LIB0010007.
func FormatRoll(code string, n int) string {
	return fmt.Sprintf("%s%04d", code, n)
}

// ParseRollSuffix returns the sequence number of a roll number issued for code.
// Anything that does not start with digits after the code counts as 0.
func ParseRollSuffix(code, roll string) int {
	suffix := strings.TrimPrefix(roll, code)
	end := 0
	for end < len(suffix) && suffix[end] >= '0' && suffix[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(suffix[:end])
	if err != nil {
		return 0
	}
	return n
}

// RollAllocator assigns roll numbers. The numeric part comes from an atomic per-library counter,
// seeded from the library's own most recent roll number the first time it allocates.
type RollAllocator struct {
	seq  Sequencer
	repo Repository
}

func NewRollAllocator(seq Sequencer, repo Repository) *RollAllocator {
	return &RollAllocator{seq: seq, repo: repo}
}

func (a *RollAllocator) Allocate(ctx context.Context, libraryID, code string) (string, error) {
	seed := func(ctx context.Context) (int, error) {
		last, err := a.repo.LastRollNumber(ctx, libraryID, code)
		if err != nil {
			return 0, errors.Wrap(err, "finding last roll number")
		}
		if last == "" {
			return 0, nil // baseline CODE0000
		}
		return ParseRollSuffix(code, last), nil
	}

	n, err := a.seq.Next(ctx, rollSequencePrefix+code, seed)
	if err != nil {
		return "", errors.Wrap(err, "incrementing roll sequence")
	}
	return FormatRoll(code, n), nil
}
