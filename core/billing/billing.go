// Package billing holds the date arithmetic behind tenant subscriptions and student fee schedules.
// Every status shown to clients is derived here from stored dates; nothing in this package is persisted.
package billing

import (
	"sort"
	"time"
)

// State is the derived billing status of a tenant.
type State string

const (
	Current State = "current"
	Overdue State = "overdue"
	Blocked State = "blocked"
)

// UpcomingWindowDays is how far ahead a student fee counts as upcoming.
const UpcomingWindowDays = 7

// Account is the billing view of a tenant.
type Account struct {
	IsPaymentRequired bool
	AccessBlocked     bool
	LastPaidDate      *time.Time
	NextDueDate       *time.Time
}

// Classify derives the tenant billing state. A block always wins; tenants that are not
// required to pay are always current.
func Classify(acc Account, now time.Time) State {
	switch {
	case acc.AccessBlocked:
		return Blocked
	case !acc.IsPaymentRequired:
		return Current
	case acc.NextDueDate != nil && acc.NextDueDate.Before(now):
		return Overdue
	default:
		return Current
	}
}

// IsUnpaid reports whether a tenant owes a payment: it must pay, and has either never paid or is past its due date.
func IsUnpaid(acc Account, now time.Time) bool {
	if !acc.IsPaymentRequired {
		return false
	}
	return acc.LastPaidDate == nil || (acc.NextDueDate != nil && acc.NextDueDate.Before(now))
}

// NextCycle returns the due date one calendar month after t.
// Day overflow is normalized (Jan 31 -> Mar 3 on non leap years).
func NextCycle(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Millisecond)
}

// MonthRange returns the first and last instants of t's month.
func MonthRange(t time.Time) (from, to time.Time) {
	return StartOfMonth(t), EndOfMonth(t)
}

// PreviousMonth returns an instant inside the month before t's month.
func PreviousMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, -1, 0)
}

// Bucket classifies a student fee due date.
type Bucket int

const (
	NotDue Bucket = iota
	DueOverdue
	DueUpcoming
)

// DueWindowEnd is the last instant a due date may fall on to be reported.
func DueWindowEnd(now time.Time) time.Time {
	return EndOfDay(StartOfDay(now).AddDate(0, 0, UpcomingWindowDays))
}

// DueBucket puts a due date in the overdue bucket when it is before today, in the upcoming bucket
// when it falls within the next UpcomingWindowDays days, and nowhere otherwise.
func DueBucket(due, now time.Time) Bucket {
	switch {
	case due.Before(StartOfDay(now)):
		return DueOverdue
	case !due.After(DueWindowEnd(now)):
		return DueUpcoming
	default:
		return NotDue
	}
}

// SortDue keeps the items that are due and orders them overdue first, then upcoming,
// each bucket by ascending due date. Items without a due date are dropped.
func SortDue[T any](items []T, dueOf func(T) *time.Time, now time.Time) []T {
	var overdue, upcoming []T
	for _, it := range items {
		due := dueOf(it)
		if due == nil {
			continue
		}
		switch DueBucket(*due, now) {
		case DueOverdue:
			overdue = append(overdue, it)
		case DueUpcoming:
			upcoming = append(upcoming, it)
		}
	}
	byDue := func(s []T) {
		sort.SliceStable(s, func(i, j int) bool { return dueOf(s[i]).Before(*dueOf(s[j])) })
	}
	byDue(overdue)
	byDue(upcoming)

	out := make([]T, 0, len(overdue)+len(upcoming))
	out = append(out, overdue...)
	return append(out, upcoming...)
}
