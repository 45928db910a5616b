package logsvc

import (
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"

	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/core/auth"
)

// RollbarLogger writes to zap and reports to rollbar. Rollbar is disabled when no token is configured.
type RollbarLogger struct {
	zap *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(z *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{zap: z.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, auth.Principal
func (l RollbarLogger) prepare(msg string, args []interface{}) (rbArgs, kv []interface{}) {
	var personSet bool
	rbArgs = make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)

	setPerson := func(id, email string, role auth.Role) {
		if !personSet { // only set one person
			rollbar.SetPerson(id, string(role), email)
			kv = append(kv, "principal", id)
			personSet = true
		}
	}

	for i, arg := range args {
		switch a := arg.(type) {
		case auth.Founder:
			setPerson(a.ID, a.Email, a.Role())
		case auth.TenantAdmin:
			setPerson(a.LibraryID, a.AdminEmail, a.Role())
		case error:
			rbArgs = append(rbArgs, a)
			kv = append(kv, "error", a)
		case map[string]interface{}:
			rbArgs = append(rbArgs, a)
			for k, v := range a {
				kv = append(kv, k, v)
			}
		default:
			rbArgs = append(rbArgs, a)
			kv = append(kv, fmt.Sprintf("arg%d", i), a)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return rbArgs, kv
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rb, kv := l.prepare(msg, args)
	rollbar.Debug(rb...)
	l.zap.Debugw(msg, kv...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rb, kv := l.prepare(msg, args)
	rollbar.Info(rb...)
	l.zap.Infow(msg, kv...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rb, kv := l.prepare(msg, args)
	rollbar.Warning(rb...)
	l.zap.Warnw(msg, kv...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rb, kv := l.prepare(msg, args)
	rollbar.Error(rb...)
	l.zap.Errorw(msg, kv...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rb, kv := l.prepare(msg, args)
	rollbar.Critical(rb...)
	rollbar.Wait()
	l.zap.Fatalw(msg, kv...)
}

// Sync flushes both sinks.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.zap.Sync()
}
