package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/appversion"
)

const appVersionColumns = `id, latest_version, update_url, release_notes, force_update, created_at, updated_at`

type appVersionRepository struct {
	db *sqlx.DB
}

var _ appversion.Repository = (*appVersionRepository)(nil) // interface compliance check

func NewAppVersionRepository(db *sqlx.DB) appversion.Repository {
	return &appVersionRepository{db: db}
}

func (repo *appVersionRepository) CreateAppVersion(ctx context.Context, v appversion.AppVersion) (appversion.AppVersion, error) {
	q := `INSERT INTO app_versions (` + appVersionColumns + `)
		VALUES (:id, :latest_version, :update_url, :release_notes, :force_update, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, v); err != nil {
		return appversion.AppVersion{}, errors.Wrap(err, "inserting app version")
	}
	return v, nil
}

func (repo *appVersionRepository) LatestAppVersion(ctx context.Context) (appversion.AppVersion, error) {
	var v appversion.AppVersion
	q := `SELECT ` + appVersionColumns + ` FROM app_versions ORDER BY created_at DESC LIMIT 1`
	if err := repo.db.GetContext(ctx, &v, q); err != nil {
		return appversion.AppVersion{}, trapNoRowsErr(err, appversion.ErrNotFound, "finding latest app version")
	}
	return v, nil
}
