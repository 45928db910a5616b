// Package appversion publishes the latest mobile app release.
package appversion

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/libdesk/core"
)

var (
	NowFunc = time.Now // mockable

	ErrNotFound = core.NewNotFoundError("No version info found")
)

type AppVersion struct {
	ID            string    `json:"id" db:"id"`
	LatestVersion string    `json:"latestVersion" db:"latest_version"`
	UpdateURL     string    `json:"updateUrl" db:"update_url"`
	ReleaseNotes  string    `json:"releaseNotes" db:"release_notes"`
	ForceUpdate   bool      `json:"forceUpdate" db:"force_update"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type NewAppVersion struct {
	LatestVersion string `json:"latestVersion" validate:"required,notblank,max=32"`
	UpdateURL     string `json:"updateUrl" validate:"required,url"`
	ReleaseNotes  string `json:"releaseNotes" validate:"max=2000"`
	ForceUpdate   bool   `json:"forceUpdate"`
}

func (nv *NewAppVersion) Validate(validate *validator.Validate) error {
	nv.LatestVersion = core.CleanString(nv.LatestVersion)
	nv.UpdateURL = core.CleanString(nv.UpdateURL)
	nv.ReleaseNotes = core.CleanString(nv.ReleaseNotes)
	return validate.Struct(nv)
}

type Repository interface {
	CreateAppVersion(ctx context.Context, v AppVersion) (AppVersion, error)
	// LatestAppVersion returns ErrNotFound when nothing was published yet.
	LatestAppVersion(ctx context.Context) (AppVersion, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nv NewAppVersion) (AppVersion, error) {
	now := NowFunc().UTC()
	return svc.repo.CreateAppVersion(ctx, AppVersion{
		ID:            uuid.NewString(),
		LatestVersion: nv.LatestVersion,
		UpdateURL:     nv.UpdateURL,
		ReleaseNotes:  nv.ReleaseNotes,
		ForceUpdate:   nv.ForceUpdate,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *Service) Latest(ctx context.Context) (AppVersion, error) {
	return svc.repo.LatestAppVersion(ctx)
}
