package logger

import (
	"encoding/json"
	"fmt"

	"github.com/mager/tastebud/config"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ProvideLogger provides a zap logger
func ProvideLogger(cfg config.Config) (*zap.SugaredLogger, error) {
	rawJSON := []byte(`{
	  "level": "info",
	  "encoding": "json",
	  "outputPaths": ["stdout"],
	  "errorOutputPaths": ["stderr"],
	  "encoderConfig": {
	    "messageKey": "message",
	    "levelKey": "level",
	    "timeKey": "time",
	    "levelEncoder": "lowercase",
	    "timeEncoder": "iso8601"
	  }
	}`)

	var zcfg zap.Config
	if err := json.Unmarshal(rawJSON, &zcfg); err != nil {
		return nil, err
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// ProvideFxLogger routes fx lifecycle events through the application logger.
func ProvideFxLogger(log *zap.SugaredLogger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Desugar()}
}

// NewTestLogger returns a new logger and observed logs for testing.
func NewTestLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), recorded
}

// Redact shortens a secret to a loggable prefix.
func Redact(secret string) string {
	if len(secret) <= 10 {
		return secret[:len(secret)/2] + "..."
	}
	return secret[:10] + "..."
}

var Options = ProvideLogger
