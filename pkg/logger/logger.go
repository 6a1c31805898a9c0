package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// Init builds the process logger (called once from main, before any goroutine
// logs). level is a zap level name; format is "json" or "console".
func Init(level, format string) {
	atomicLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if format != "json" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewExample()
	}

	base = l
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Named returns a structured logger for libraries that accept a *zap.Logger.
func Named(name string) *zap.Logger {
	return base.Named(name)
}

// Sync flushes buffered entries.
func Sync() {
	_ = base.Sync()
}

func Infof(format string, v ...any) {
	sugar.Infof(format, v...)
}

func Warnf(format string, v ...any) {
	sugar.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	sugar.Errorf(format, v...)
}

func Debugf(format string, v ...any) {
	sugar.Debugf(format, v...)
}

func Fatalf(format string, v ...any) {
	sugar.Fatalf(format, v...)
}
