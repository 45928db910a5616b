// Package redisstore keeps counters and one-time codes in redis.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/otp"
	"github.com/trezcool/libdesk/core/student"
)

const (
	sequenceKeyPrefix = "libdesk:seq:"
	otpKeyPrefix      = "libdesk:otp:"

	// codes outlive their expiry a little so late attempts get "expired" rather than "invalid"
	otpGrace = time.Minute
)

var NowFunc = time.Now // mockable

// Open connects to redis and checks the connection.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

type sequencer struct {
	client *redis.Client
}

var _ student.Sequencer = (*sequencer)(nil) // interface compliance check

func NewSequencer(client *redis.Client) student.Sequencer {
	return &sequencer{client: client}
}

// Next seeds a missing counter with SETNX, so only the first seed wins, then INCRs it.
func (seq *sequencer) Next(ctx context.Context, name string, seed func(context.Context) (int, error)) (int, error) {
	key := sequenceKeyPrefix + name

	n, err := seq.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "checking sequence")
	}
	if n == 0 {
		start, err := seed(ctx)
		if err != nil {
			return 0, err
		}
		if err = seq.client.SetNX(ctx, key, start, 0).Err(); err != nil {
			return 0, errors.Wrap(err, "initializing sequence")
		}
	}

	v, err := seq.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "incrementing sequence")
	}
	return int(v), nil
}

type otpStore struct {
	client *redis.Client
}

var _ otp.Store = (*otpStore)(nil) // interface compliance check

func NewOTPStore(client *redis.Client) otp.Store {
	return &otpStore{client: client}
}

func otpKey(email, code string) string { return otpKeyPrefix + email + ":" + code }

func (st *otpStore) Save(ctx context.Context, o otp.OTP) error {
	val, err := json.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encoding otp")
	}
	ttl := o.ExpiresAt.Sub(NowFunc()) + otpGrace
	if ttl <= 0 {
		ttl = otpGrace
	}
	if err = st.client.Set(ctx, otpKey(o.Email, o.Code), val, ttl).Err(); err != nil {
		return errors.Wrap(err, "saving otp")
	}
	return nil
}

func (st *otpStore) Find(ctx context.Context, email, code string) (otp.OTP, bool, error) {
	val, err := st.client.Get(ctx, otpKey(email, code)).Bytes()
	if err == redis.Nil {
		return otp.OTP{}, false, nil
	}
	if err != nil {
		return otp.OTP{}, false, errors.Wrap(err, "finding otp")
	}
	var o otp.OTP
	if err = json.Unmarshal(val, &o); err != nil {
		return otp.OTP{}, false, errors.Wrap(err, "decoding otp")
	}
	return o, true, nil
}

func (st *otpStore) Delete(ctx context.Context, email, code string) error {
	if err := st.client.Del(ctx, otpKey(email, code)).Err(); err != nil {
		return errors.Wrap(err, "deleting otp")
	}
	return nil
}
