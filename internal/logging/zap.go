package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a sugared zap logger to Logger
type ZapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(l *zap.Logger) *ZapLogger {
	return &ZapLogger{l: l.Sugar()}
}

// New builds a zap logger writing to stderr.
// level is one of debug, info, warn, error; format is json or console.
func New(level, format string) (*ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return NewZapLogger(l), nil
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return NewZapLogger(zap.NewNop())
}

func (z *ZapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }

func (z *ZapLogger) Info(msg string, args ...any) { z.l.Infow(msg, args...) }

func (z *ZapLogger) Warn(msg string, args ...any) { z.l.Warnw(msg, args...) }

func (z *ZapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }

// With returns a child logger carrying the given key–value pairs
func (z *ZapLogger) With(args ...any) Logger {
	return &ZapLogger{l: z.l.With(args...)}
}

// Sync flushes buffered entries
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}
