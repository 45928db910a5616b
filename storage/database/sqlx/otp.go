package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core/otp"
)

type otpStore struct {
	db *sqlx.DB
}

var _ otp.Store = (*otpStore)(nil) // interface compliance check

func NewOTPStore(db *sqlx.DB) otp.Store {
	return &otpStore{db: db}
}

func (st *otpStore) Save(ctx context.Context, o otp.OTP) error {
	q := `INSERT INTO otps (email, code, expires_at, created_at) VALUES (:email, :code, :expires_at, :created_at)
		ON CONFLICT (email, code) DO UPDATE SET expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`
	if _, err := st.db.NamedExecContext(ctx, q, o); err != nil {
		return errors.Wrap(err, "saving otp")
	}
	return nil
}

func (st *otpStore) Find(ctx context.Context, email, code string) (otp.OTP, bool, error) {
	var o otp.OTP
	q := `SELECT email, code, expires_at, created_at FROM otps WHERE email = $1 AND code = $2`
	if err := st.db.GetContext(ctx, &o, q, email, code); err != nil {
		if err = trapNoRowsErr(err, nil, "finding otp"); err != nil {
			return otp.OTP{}, false, err
		}
		return otp.OTP{}, false, nil
	}
	return o, true, nil
}

func (st *otpStore) Delete(ctx context.Context, email, code string) error {
	if _, err := st.db.ExecContext(ctx, `DELETE FROM otps WHERE email = $1 AND code = $2`, email, code); err != nil {
		return errors.Wrap(err, "deleting otp")
	}
	return nil
}
