package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger = zap.NewNop()

func Get() *zap.Logger {
	return defaultLogger
}

// Set replaces the process logger. A disabled logger discards everything.
// Without a path, logs go to stderr in console format; with a path they are
// written as JSON.
func Set(enabled, verbose bool, path string) error {
	if !enabled {
		defaultLogger = zap.NewNop()
		return nil
	}

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      verbose,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if path != "" {
		cfg.Encoding = "json"
		cfg.EncoderConfig = zap.NewProductionEncoderConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{path}
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

func Flush() {
	_ = defaultLogger.Sync()
}
