// Package logger wraps zap with named loggers and context-scoped fields.
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = mustBuild("info", false)
)

// Setup replaces the process logger. level is a zap level name; dev switches
// to the human readable console encoder.
func Setup(level string, dev bool) error {
	l, err := build(level, dev)
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// MustNamed returns a sugared logger scoped to a component name.
func MustNamed(name string) *zap.SugaredLogger {
	return Base().Named(name).Sugar()
}

func build(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	conf := zap.NewProductionConfig()
	if dev {
		conf = zap.NewDevelopmentConfig()
	}
	conf.Level = zap.NewAtomicLevelAt(lvl)
	conf.EncoderConfig.TimeKey = "ts"
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return conf.Build()
}

func mustBuild(level string, dev bool) *zap.Logger {
	l, err := build(level, dev)
	if err != nil {
		panic(err)
	}
	return l
}

type fieldsKey struct{}

// WithFields returns a context whose log lines carry the given key/value
// pairs in addition to any fields already attached.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	prev := fieldsFrom(ctx)
	fields := make([]any, 0, len(prev)+len(keysAndValues))
	fields = append(fields, prev...)
	fields = append(fields, keysAndValues...)
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func fieldsFrom(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).([]any)
	return fields
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	l := Base().WithOptions(zap.AddCallerSkip(1)).Sugar()
	if fields := fieldsFrom(ctx); len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

func Debugw(ctx context.Context, msg string, keysAndValues ...any) {
	fromContext(ctx).Debugw(msg, keysAndValues...)
}

func Infow(ctx context.Context, msg string, keysAndValues ...any) {
	fromContext(ctx).Infow(msg, keysAndValues...)
}

func Warnw(ctx context.Context, msg string, keysAndValues ...any) {
	fromContext(ctx).Warnw(msg, keysAndValues...)
}

func Errorw(ctx context.Context, msg string, keysAndValues ...any) {
	fromContext(ctx).Errorw(msg, keysAndValues...)
}

func Infof(ctx context.Context, template string, args ...any) {
	fromContext(ctx).Infof(template, args...)
}

func Warnf(ctx context.Context, template string, args ...any) {
	fromContext(ctx).Warnf(template, args...)
}

// Logw logs at an explicit level.
func Logw(ctx context.Context, level zapcore.Level, msg string, keysAndValues ...any) {
	l := fromContext(ctx)
	switch {
	case level >= zapcore.ErrorLevel:
		l.Errorw(msg, keysAndValues...)
	case level == zapcore.WarnLevel:
		l.Warnw(msg, keysAndValues...)
	case level == zapcore.InfoLevel:
		l.Infow(msg, keysAndValues...)
	default:
		l.Debugw(msg, keysAndValues...)
	}
}
