package inmemdb

import (
	"context"

	"github.com/trezcool/libdesk/core/appversion"
)

type appVersionRepository struct {
	db *DB
}

var _ appversion.Repository = (*appVersionRepository)(nil) // interface compliance check

func NewAppVersionRepository(db *DB) appversion.Repository {
	return &appVersionRepository{db: db}
}

func (repo *appVersionRepository) CreateAppVersion(_ context.Context, v appversion.AppVersion) (appversion.AppVersion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.appVersions = append(repo.db.appVersions, v)
	return v, nil
}

func (repo *appVersionRepository) LatestAppVersion(_ context.Context) (appversion.AppVersion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var latest *appversion.AppVersion
	for i := range repo.db.appVersions {
		v := &repo.db.appVersions[i]
		if latest == nil || !v.CreatedAt.Before(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return appversion.AppVersion{}, appversion.ErrNotFound
	}
	return *latest, nil
}
