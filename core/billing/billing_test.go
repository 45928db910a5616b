package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tp(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name string
		acc  Account
		want State
	}{
		{name: "blocked wins over everything", acc: Account{IsPaymentRequired: true, AccessBlocked: true, NextDueDate: tp(future)}, want: Blocked},
		{name: "blocked even when payment not required", acc: Account{AccessBlocked: true}, want: Blocked},
		{name: "payment not required", acc: Account{NextDueDate: tp(past)}, want: Current},
		{name: "due in the past", acc: Account{IsPaymentRequired: true, NextDueDate: tp(past), LastPaidDate: tp(past)}, want: Overdue},
		{name: "due in the future", acc: Account{IsPaymentRequired: true, NextDueDate: tp(future)}, want: Current},
		{name: "no due date", acc: Account{IsPaymentRequired: true}, want: Current},
		{name: "due exactly now", acc: Account{IsPaymentRequired: true, NextDueDate: tp(now)}, want: Current},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.acc, now))
		})
	}
}

func TestIsUnpaid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name string
		acc  Account
		want bool
	}{
		{name: "not required", acc: Account{}, want: false},
		{name: "never paid", acc: Account{IsPaymentRequired: true, NextDueDate: tp(future)}, want: true},
		{name: "paid and current", acc: Account{IsPaymentRequired: true, LastPaidDate: tp(past), NextDueDate: tp(future)}, want: false},
		{name: "paid but past due", acc: Account{IsPaymentRequired: true, LastPaidDate: tp(past), NextDueDate: tp(past)}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnpaid(tt.acc, now))
		})
	}
}

func TestNextCycle(t *testing.T) {
	assert.Equal(t, time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC), NextCycle(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), NextCycle(time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)))
	// overflow is normalized
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), NextCycle(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)))
}

func TestMonthRange(t *testing.T) {
	from, to := MonthRange(time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC), to)

	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), PreviousMonth(time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)))
}

func TestDueBucket(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want Bucket
	}{
		{name: "yesterday", due: time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC), want: DueOverdue},
		{name: "earlier today", due: time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), want: DueUpcoming},
		{name: "in 7 days late evening", due: time.Date(2025, 6, 22, 23, 59, 0, 0, time.UTC), want: DueUpcoming},
		{name: "in 8 days", due: time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), want: NotDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DueBucket(tt.due, now))
		})
	}
}

func TestSortDue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	type item struct {
		name string
		due  *time.Time
	}
	items := []item{
		{name: "upcoming-late", due: tp(now.AddDate(0, 0, 6))},
		{name: "overdue-recent", due: tp(now.AddDate(0, 0, -1))},
		{name: "far", due: tp(now.AddDate(0, 1, 0))},
		{name: "none"},
		{name: "upcoming-soon", due: tp(now.AddDate(0, 0, 1))},
		{name: "overdue-old", due: tp(now.AddDate(0, -2, 0))},
	}

	got := SortDue(items, func(i item) *time.Time { return i.due }, now)

	names := make([]string, 0, len(got))
	for _, it := range got {
		names = append(names, it.name)
	}
	assert.Equal(t, []string{"overdue-old", "overdue-recent", "upcoming-soon", "upcoming-late"}, names)
}
