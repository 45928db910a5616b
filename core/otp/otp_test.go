package otp_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core/otp"
	"github.com/trezcool/libdesk/testutil"
)

var (
	ctxBg  = context.Background()
	codeRe = regexp.MustCompile(`^\d{6}$`)
)

func sentCode(t *testing.T, a *testutil.App) string {
	t.Helper()
	sent := a.Mail.Sent()
	require.NotEmpty(t, sent)
	m := regexp.MustCompile(`code is (\d+)`).FindStringSubmatch(sent[len(sent)-1].TextContent)
	require.Len(t, m, 2)
	return m[1]
}

func TestService_SendVerify(t *testing.T) {
	a := testutil.NewApp()

	require.NoError(t, a.OTPSvc.Send(ctxBg, "reader@example.com"))
	code := sentCode(t, a)
	assert.Regexp(t, codeRe, code)

	assert.Equal(t, otp.ErrInvalid, a.OTPSvc.Verify(ctxBg, "other@example.com", code))
	require.NoError(t, a.OTPSvc.Verify(ctxBg, "reader@example.com", code))
	assert.Equal(t, otp.ErrInvalid, a.OTPSvc.Verify(ctxBg, "reader@example.com", code), "codes are single use")
}

func TestService_Verify_expired(t *testing.T) {
	a := testutil.NewApp()

	sentAt := time.Now()
	otp.NowFunc = func() time.Time { return sentAt }
	defer func() { otp.NowFunc = time.Now }()

	require.NoError(t, a.OTPSvc.Send(ctxBg, "reader@example.com"))
	code := sentCode(t, a)

	otp.NowFunc = func() time.Time { return sentAt.Add(a.Conf.OTPExpiration + time.Second) }
	assert.Equal(t, otp.ErrExpired, a.OTPSvc.Verify(ctxBg, "reader@example.com", code))
	assert.Equal(t, otp.ErrInvalid, a.OTPSvc.Verify(ctxBg, "reader@example.com", code), "expired codes are deleted")
}

func TestService_Send_codesDiffer(t *testing.T) {
	a := testutil.NewApp()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		require.NoError(t, a.OTPSvc.Send(ctxBg, "reader@example.com"))
		seen[sentCode(t, a)] = true
	}
	// 5 draws out of a million: a collision would point at a broken generator
	assert.Greater(t, len(seen), 3)
}
