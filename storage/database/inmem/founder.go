package inmemdb

import (
	"context"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/founder"
)

type founderRepository struct {
	db *DB
}

var _ founder.Repository = (*founderRepository)(nil) // interface compliance check

func NewFounderRepository(db *DB) founder.Repository {
	return &founderRepository{db: db}
}

func (repo *founderRepository) CreateFounder(_ context.Context, f founder.Founder) (founder.Founder, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.founders {
		if other.Email == f.Email {
			return founder.Founder{}, core.NewConflictError("email")
		}
	}
	repo.db.founders[f.ID] = &f
	return f, nil
}

func (repo *founderRepository) GetFounderByID(_ context.Context, id string) (founder.Founder, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f, ok := repo.db.founders[id]; ok {
		return *f, nil
	}
	return founder.Founder{}, founder.ErrNotFound
}

func (repo *founderRepository) GetFounderByEmail(_ context.Context, email string) (founder.Founder, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, f := range repo.db.founders {
		if f.Email == email {
			return *f, nil
		}
	}
	return founder.Founder{}, founder.ErrNotFound
}

func (repo *founderRepository) UpdateFounderPassword(_ context.Context, id string, hash []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	f, ok := repo.db.founders[id]
	if !ok {
		return founder.ErrNotFound
	}
	f.PasswordHash = hash
	return nil
}
