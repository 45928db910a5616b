package student

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/billing"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("Student not found")
)

// Repository persists students. Every method is scoped to a library: a student of another library is not found.
type Repository interface {
	// CreateStudent fails with a core.ConflictError naming the field when the mobile, aadhar or roll number is taken.
	CreateStudent(ctx context.Context, s Student) (Student, error)
	GetStudent(ctx context.Context, libraryID, id string) (Student, error)
	QueryStudents(ctx context.Context, libraryID string, filter QueryFilter) ([]Student, error)
	UpdateStudent(ctx context.Context, s Student) (Student, error)
	DeleteStudent(ctx context.Context, libraryID, id string) error
	CountStudents(ctx context.Context, libraryID string) (int, error)
	// DueStudents returns the students whose next due date is on or before `until`.
	DueStudents(ctx context.Context, libraryID string, until time.Time) ([]DueStudent, error)
	// LastRollNumber returns the roll number of the library's most recently created student whose
	// roll number starts with prefix, or "" when there is none.
	LastRollNumber(ctx context.Context, libraryID, prefix string) (string, error)
	// RecordPayment moves the fee schedule of a student after a payment.
	RecordPayment(ctx context.Context, libraryID, id string, nextDue, lastPaid time.Time) error
	SetStudentProfileImage(ctx context.Context, libraryID, id, url string) (Student, error)
}

type Service struct {
	repo     Repository
	rolls    *RollAllocator
	notifier core.Notifier
	logger   core.Logger
}

func NewService(repo Repository, seq Sequencer, notifier core.Notifier, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		rolls:    NewRollAllocator(seq, repo),
		notifier: notifier,
		logger:   logger,
	}
}

// Create enrolls a student in the library and assigns the next roll number of its code.
func (svc *Service) Create(ctx context.Context, libraryID, libraryCode string, ns NewStudent) (Student, error) {
	roll, err := svc.rolls.Allocate(ctx, libraryID, libraryCode)
	if err != nil {
		return Student{}, errors.Wrap(err, "allocating roll number")
	}

	s := Student{
		ID:          uuid.NewString(),
		LibraryID:   libraryID,
		Name:        ns.Name,
		Mobile:      ns.Mobile,
		Aadhar:      ns.Aadhar,
		RollNumber:  roll,
		Gender:      ns.Gender,
		DateOfBirth: ns.DateOfBirth.Time,
		Shift:       ns.Shift,
		Address:     ns.Address,
		FatherName:  ns.FatherName,
		Email:       ns.Email,
		JoiningDate: ns.JoiningDate.Time,
		NextDueDate: ns.NextDueDate.TimePtr(),
		CreatedAt:   NowFunc().UTC(),
	}
	s, err = svc.repo.CreateStudent(ctx, s)
	if err != nil {
		return Student{}, err
	}

	if err := svc.notifier.Broadcast(libraryID, core.EventStudentCreated, s); err != nil {
		svc.logger.Warn(fmt.Sprintf("broadcasting %s: %v", core.EventStudentCreated, err), err)
	}
	return s, nil
}

func (svc *Service) Query(ctx context.Context, libraryID string, filter QueryFilter) ([]Student, error) {
	students, err := svc.repo.QueryStudents(ctx, libraryID, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (svc *Service) Get(ctx context.Context, libraryID, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, libraryID, id)
}

func (svc *Service) Update(ctx context.Context, libraryID, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, libraryID, id)
	if err != nil {
		return Student{}, err
	}

	if us.Name != nil {
		s.Name = *us.Name
	}
	if us.Mobile != nil {
		s.Mobile = *us.Mobile
	}
	if us.Aadhar != nil {
		s.Aadhar = *us.Aadhar
	}
	if us.Gender != nil {
		s.Gender = *us.Gender
	}
	if t := us.DateOfBirth.TimePtr(); t != nil {
		s.DateOfBirth = *t
	}
	if us.Shift != nil {
		s.Shift = *us.Shift
	}
	if us.Address != nil {
		s.Address = *us.Address
	}
	if us.FatherName != nil {
		s.FatherName = *us.FatherName
	}
	if us.Email != nil {
		s.Email = *us.Email
	}
	if t := us.JoiningDate.TimePtr(); t != nil {
		s.JoiningDate = *t
	}
	if t := us.NextDueDate.TimePtr(); t != nil {
		s.NextDueDate = t
	}
	if t := us.LastPaidDate.TimePtr(); t != nil {
		s.LastPaidDate = t
	}
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, libraryID, id string) error {
	return svc.repo.DeleteStudent(ctx, libraryID, id)
}

func (svc *Service) Count(ctx context.Context, libraryID string) (int, error) {
	return svc.repo.CountStudents(ctx, libraryID)
}

// DueFees lists the students whose fee is overdue or due within the upcoming window,
// overdue first, each group by ascending due date.
func (svc *Service) DueFees(ctx context.Context, libraryID string) ([]DueStudent, error) {
	now := NowFunc()
	students, err := svc.repo.DueStudents(ctx, libraryID, billing.DueWindowEnd(now))
	if err != nil {
		return nil, errors.Wrap(err, "querying due students")
	}
	due := billing.SortDue(students, func(s DueStudent) *time.Time { return &s.NextDueDate }, now)
	for i := range due {
		due[i].Overdue = billing.DueBucket(due[i].NextDueDate, now) == billing.DueOverdue
	}
	return due, nil
}

// RecordPayment is called once a payment is stored; it is the only automatic writer of a student's fee dates.
func (svc *Service) RecordPayment(ctx context.Context, libraryID, id string, nextDue, paidAt time.Time) error {
	return svc.repo.RecordPayment(ctx, libraryID, id, nextDue, paidAt)
}

func (svc *Service) SetProfileImage(ctx context.Context, libraryID, id, url string) (Student, error) {
	return svc.repo.SetStudentProfileImage(ctx, libraryID, id, url)
}
