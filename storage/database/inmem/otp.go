package inmemdb

import (
	"context"

	"github.com/trezcool/libdesk/core/otp"
)

type otpStore struct {
	db *DB
}

var _ otp.Store = (*otpStore)(nil) // interface compliance check

func NewOTPStore(db *DB) otp.Store {
	return &otpStore{db: db}
}

func otpKey(email, code string) string { return email + ":" + code }

func (st *otpStore) Save(_ context.Context, o otp.OTP) error {
	st.db.mutex.Lock()
	defer st.db.mutex.Unlock()

	st.db.otps[otpKey(o.Email, o.Code)] = o
	return nil
}

func (st *otpStore) Find(_ context.Context, email, code string) (otp.OTP, bool, error) {
	st.db.mutex.RLock()
	defer st.db.mutex.RUnlock()

	o, ok := st.db.otps[otpKey(email, code)]
	return o, ok, nil
}

func (st *otpStore) Delete(_ context.Context, email, code string) error {
	st.db.mutex.Lock()
	defer st.db.mutex.Unlock()

	delete(st.db.otps, otpKey(email, code))
	return nil
}
