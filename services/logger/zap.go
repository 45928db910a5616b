package logsvc

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/libdesk/core"
)

// NewZap builds the process logger from conf.LogLevel and conf.LogFormat ("console" or "json").
func NewZap(conf *core.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(conf.LogLevel))); err != nil {
		return nil, errors.Wrapf(err, "parsing log level %q", conf.LogLevel)
	}

	zc := zap.NewProductionConfig()
	if conf.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.InitialFields = map[string]interface{}{"app": conf.AppName, "env": conf.Env, "build": conf.Build}

	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}
