package appversion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core/appversion"
	"github.com/trezcool/libdesk/testutil"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	a := testutil.NewApp()

	_, err := a.AppVersionSvc.Latest(ctx)
	assert.Equal(t, appversion.ErrNotFound, err)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	appversion.NowFunc = func() time.Time { return now }
	defer func() { appversion.NowFunc = time.Now }()

	for _, v := range []string{"1.0.0", "1.1.0"} {
		_, err = a.AppVersionSvc.Create(ctx, appversion.NewAppVersion{LatestVersion: v, UpdateURL: "https://example.com/app.apk"})
		require.NoError(t, err)
		now = now.Add(time.Hour)
	}

	latest, err := a.AppVersionSvc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", latest.LatestVersion)
}

func TestNewAppVersion_Validate(t *testing.T) {
	a := testutil.NewApp()

	nv := appversion.NewAppVersion{LatestVersion: " 2.0.1 ", UpdateURL: "https://example.com/app.apk"}
	require.NoError(t, nv.Validate(a.Validate))
	assert.Equal(t, "2.0.1", nv.LatestVersion)

	nv = appversion.NewAppVersion{LatestVersion: "2.0.1", UpdateURL: "example"}
	assert.Error(t, nv.Validate(a.Validate))
}
