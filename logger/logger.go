package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// S is the package-level logger, set by Init. Packages go through L so
// that code under test works without initialization.
var S *zap.SugaredLogger

// Init builds a zap SugaredLogger at the given level.
func Init(level string) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(zapcore.Lock(os.Stderr)),
		lvl,
	)

	S = zap.New(core).Sugar()
	return S, nil
}

// L returns the active logger, or a no-op one before Init.
func L() *zap.SugaredLogger {
	if S == nil {
		return zap.NewNop().Sugar()
	}
	return S
}

// Close flushes buffered log entries.
func Close() error {
	if S == nil {
		return nil
	}
	return S.Sync()
}
