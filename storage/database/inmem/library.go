package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/library"
)

type libraryRepository struct {
	db *DB
}

var _ library.Repository = (*libraryRepository)(nil) // interface compliance check

func NewLibraryRepository(db *DB) library.Repository {
	return &libraryRepository{db: db}
}

// checkUniqueness must be called with the lock held.
func (repo *libraryRepository) checkUniqueness(lib library.Library) error {
	for _, other := range repo.db.libraries {
		if other.ID == lib.ID {
			continue
		}
		if other.Code == lib.Code {
			return core.NewConflictError("code")
		}
		if other.AdminEmail == lib.AdminEmail {
			return core.NewConflictError("adminEmail")
		}
	}
	return nil
}

func (repo *libraryRepository) CreateLibrary(_ context.Context, lib library.Library) (library.Library, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkUniqueness(lib); err != nil {
		return library.Library{}, err
	}
	repo.db.libraries[lib.ID] = &lib
	return lib, nil
}

func (repo *libraryRepository) GetLibraryByID(_ context.Context, id string) (library.Library, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if lib, ok := repo.db.libraries[id]; ok {
		return *lib, nil
	}
	return library.Library{}, library.ErrNotFound
}

func (repo *libraryRepository) GetLibraryByAdminEmail(_ context.Context, email string) (library.Library, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, lib := range repo.db.libraries {
		if lib.AdminEmail == email {
			return *lib, nil
		}
	}
	return library.Library{}, library.ErrNotFound
}

func (repo *libraryRepository) LibraryCodeExists(_ context.Context, code string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, lib := range repo.db.libraries {
		if lib.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (repo *libraryRepository) CountLibraries(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.libraries), nil
}

func matchesLibrary(lib library.Library, filter library.QueryFilter) bool {
	if filter.Status != "" && lib.Status != filter.Status {
		return false
	}
	if filter.AccessBlocked != nil && lib.AccessBlocked != *filter.AccessBlocked {
		return false
	}
	if filter.IsPaymentRequired != nil && lib.IsPaymentRequired != *filter.IsPaymentRequired {
		return false
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		found := false
		for _, s := range []string{lib.Name, lib.Code, lib.AdminName, lib.AdminEmail} {
			if strings.Contains(strings.ToLower(s), search) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// compareLibraries returns -1, 0 or 1 comparing a and b on a column.
func compareLibraries(a, b library.Library, column string) int {
	cmpStr := func(x, y string) int { return strings.Compare(x, y) }
	cmpTime := func(x, y time.Time) int {
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	}
	switch column {
	case "name":
		return cmpStr(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "code":
		return cmpStr(a.Code, b.Code)
	case "status":
		return cmpStr(string(a.Status), string(b.Status))
	case "billing_amount":
		return a.BillingAmount.Cmp(b.BillingAmount)
	case "next_due_date":
		var x, y time.Time
		if a.NextDueDate != nil {
			x = *a.NextDueDate
		}
		if b.NextDueDate != nil {
			y = *b.NextDueDate
		}
		return cmpTime(x, y)
	default: // created_at
		return cmpTime(a.CreatedAt, b.CreatedAt)
	}
}

func (repo *libraryRepository) QueryLibraries(_ context.Context, filter library.QueryFilter, orderings []core.DBOrdering) ([]library.Library, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	libs := make([]library.Library, 0, len(repo.db.libraries))
	for _, lib := range repo.db.libraries {
		if matchesLibrary(*lib, filter) {
			libs = append(libs, *lib)
		}
	}
	if len(orderings) == 0 {
		orderings = library.DefaultOrdering
	}
	sort.SliceStable(libs, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareLibraries(libs[i], libs[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return libs, nil
}

func (repo *libraryRepository) UpdateLibrary(_ context.Context, lib library.Library) (library.Library, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.libraries[lib.ID]
	if !ok {
		return library.Library{}, library.ErrNotFound
	}
	if err := repo.checkUniqueness(lib); err != nil {
		return library.Library{}, err
	}
	lib.PasswordHash = orig.PasswordHash
	lib.Code = orig.Code
	lib.CreatedAt = orig.CreatedAt
	repo.db.libraries[lib.ID] = &lib
	return lib, nil
}

func (repo *libraryRepository) SetAccessBlocked(_ context.Context, id string, blocked bool, now time.Time) (library.Library, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lib, ok := repo.db.libraries[id]
	if !ok {
		return library.Library{}, library.ErrNotFound
	}
	lib.AccessBlocked = blocked
	lib.UpdatedAt = now
	return *lib, nil
}

func (repo *libraryRepository) MarkPaid(_ context.Context, id string, paidAt, nextDue time.Time, notes *string) (library.Library, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lib, ok := repo.db.libraries[id]
	if !ok {
		return library.Library{}, library.ErrNotFound
	}
	lib.AccessBlocked = false
	lib.LastPaidDate = &paidAt
	lib.NextDueDate = &nextDue
	if notes != nil {
		lib.PaymentNotes = *notes
	}
	lib.UpdatedAt = paidAt
	return *lib, nil
}

func (repo *libraryRepository) UpdateLibraryPassword(_ context.Context, id string, hash []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lib, ok := repo.db.libraries[id]
	if !ok {
		return library.ErrNotFound
	}
	lib.PasswordHash = hash
	return nil
}

func (repo *libraryRepository) SetLibraryProfileImage(_ context.Context, id, url string) (library.Library, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lib, ok := repo.db.libraries[id]
	if !ok {
		return library.Library{}, library.ErrNotFound
	}
	lib.ProfileImage = url
	return *lib, nil
}

func (repo *libraryRepository) AddActivity(_ context.Context, act library.Activity) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.activities = append(repo.db.activities, act)
	return nil
}

func (repo *libraryRepository) RecentActivities(_ context.Context, limit int) ([]library.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	acts := make([]library.Activity, 0, limit)
	for i := len(repo.db.activities) - 1; i >= 0 && len(acts) < limit; i-- {
		acts = append(acts, repo.db.activities[i])
	}
	return acts, nil
}
