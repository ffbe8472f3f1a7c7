// Package logging configures the process-wide zap logger and provides the per-call
// observation event used by every external collaborator client.
package logging

import (
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Outcome values recorded on call events.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// ErrEmpty marks a call that completed but produced nothing usable.
var ErrEmpty = errors.New("empty result")

// Init replaces the global zap logger. Level is one of debug|info|warn|error,
// format is "json" or "console". If w is nil, os.Stderr is used.
func Init(level, format string, w ...io.Writer) *zap.Logger {
	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}

	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	logger := zap.New(zapcore.NewCore(enc, zapcore.AddSync(writer), lvl))
	zap.ReplaceGlobals(logger)
	return logger
}

// New returns a logger with a "component" field for package-scoped logging.
func New(component string) *zap.Logger {
	return zap.L().With(zap.String("component", component))
}

// Observe emits one event for a finished external call with its source, outcome and latency.
// A nil err is "ok", ErrEmpty (or a wrap of it) is "empty", anything else is "error".
func Observe(logger *zap.Logger, source string, start time.Time, err error, fields ...zap.Field) {
	outcome := OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrEmpty):
		outcome = OutcomeEmpty
	default:
		outcome = OutcomeError
	}

	all := make([]zap.Field, 0, len(fields)+4)
	all = append(all,
		zap.String("source", source),
		zap.String("outcome", outcome),
		zap.Duration("latency", time.Since(start)),
	)
	all = append(all, fields...)

	switch outcome {
	case OutcomeError:
		logger.Warn("call finished", append(all, zap.Error(err))...)
	case OutcomeEmpty:
		logger.Info("call finished", append(all, zap.String("reason", err.Error()))...)
	default:
		logger.Info("call finished", all...)
	}
}
