package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// checkUniqueness must be called with the lock held.
func (repo *studentRepository) checkUniqueness(s student.Student) error {
	for _, other := range repo.db.students {
		if other.ID == s.ID {
			continue
		}
		switch {
		case other.Mobile == s.Mobile:
			return core.NewConflictError("mobile")
		case other.Aadhar == s.Aadhar:
			return core.NewConflictError("aadhar")
		case other.RollNumber == s.RollNumber:
			return core.NewConflictError("rollNumber")
		}
	}
	return nil
}

// get must be called with the lock held.
func (repo *studentRepository) get(libraryID, id string) (*student.Student, error) {
	s, ok := repo.db.students[id]
	if !ok || s.LibraryID != libraryID {
		return nil, student.ErrNotFound
	}
	return s, nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(s); err != nil {
		return student.Student{}, err
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, libraryID, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	s, err := repo.get(libraryID, id)
	if err != nil {
		return student.Student{}, err
	}
	return *s, nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, libraryID string, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search := strings.ToLower(filter.Search)
	students := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if s.LibraryID != libraryID {
			continue
		}
		if filter.Shift != "" && s.Shift != filter.Shift {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.RollNumber), search) &&
			!strings.Contains(s.Mobile, search) {
			continue
		}
		students = append(students, *s)
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].CreatedAt.After(students[j].CreatedAt) })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, err := repo.get(s.LibraryID, s.ID)
	if err != nil {
		return student.Student{}, err
	}
	if err = repo.checkUniqueness(s); err != nil {
		return student.Student{}, err
	}
	s.RollNumber = orig.RollNumber
	s.CreatedAt = orig.CreatedAt
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, libraryID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, err := repo.get(libraryID, id); err != nil {
		return err
	}
	delete(repo.db.students, id)
	return nil
}

func (repo *studentRepository) CountStudents(_ context.Context, libraryID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, s := range repo.db.students {
		if s.LibraryID == libraryID {
			n++
		}
	}
	return n, nil
}

func (repo *studentRepository) DueStudents(_ context.Context, libraryID string, until time.Time) ([]student.DueStudent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	due := make([]student.DueStudent, 0)
	for _, s := range repo.db.students {
		if s.LibraryID != libraryID || s.NextDueDate == nil || s.NextDueDate.After(until) {
			continue
		}
		due = append(due, student.DueStudent{
			ID:          s.ID,
			Name:        s.Name,
			RollNumber:  s.RollNumber,
			Mobile:      s.Mobile,
			Shift:       s.Shift,
			NextDueDate: *s.NextDueDate,
		})
	}
	return due, nil
}

func (repo *studentRepository) LastRollNumber(_ context.Context, libraryID, prefix string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var last *student.Student
	for _, s := range repo.db.students {
		if s.LibraryID != libraryID || !strings.HasPrefix(s.RollNumber, prefix) {
			continue
		}
		if last == nil || s.CreatedAt.After(last.CreatedAt) {
			last = s
		}
	}
	if last == nil {
		return "", nil
	}
	return last.RollNumber, nil
}

func (repo *studentRepository) RecordPayment(_ context.Context, libraryID, id string, nextDue, lastPaid time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, err := repo.get(libraryID, id)
	if err != nil {
		return err
	}
	s.NextDueDate = &nextDue
	s.LastPaidDate = &lastPaid
	return nil
}

func (repo *studentRepository) SetStudentProfileImage(_ context.Context, libraryID, id, url string) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, err := repo.get(libraryID, id)
	if err != nil {
		return student.Student{}, err
	}
	s.ProfileImage = url
	return *s, nil
}
