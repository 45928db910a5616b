// Package dashboard assembles the tenant home screen figures.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/billing"
	"github.com/trezcool/libdesk/core/payment"
)

var NowFunc = time.Now // mockable

type Stats struct {
	TotalStudents          int                `json:"totalStudents"`
	CurrentMonthCollection payment.Collection `json:"currentMonthCollection"`
	LastMonthCollection    payment.Collection `json:"lastMonthCollection"`
}

type (
	StudentCounter interface {
		Count(ctx context.Context, libraryID string) (int, error)
	}

	CollectionReporter interface {
		MonthlyCollection(ctx context.Context, libraryID string, t time.Time) (payment.Collection, error)
	}
)

type Service struct {
	students StudentCounter
	payments CollectionReporter
}

func NewService(students StudentCounter, payments CollectionReporter) *Service {
	return &Service{students: students, payments: payments}
}

func (svc *Service) Stats(ctx context.Context, libraryID string) (Stats, error) {
	now := NowFunc()

	total, err := svc.students.Count(ctx, libraryID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	current, err := svc.payments.MonthlyCollection(ctx, libraryID, now)
	if err != nil {
		return Stats{}, errors.Wrap(err, "current month collection")
	}
	last, err := svc.payments.MonthlyCollection(ctx, libraryID, billing.PreviousMonth(now))
	if err != nil {
		return Stats{}, errors.Wrap(err, "last month collection")
	}

	return Stats{
		TotalStudents:          total,
		CurrentMonthCollection: current,
		LastMonthCollection:    last,
	}, nil
}
