package log

import (
	"context"
	"errors"
	"syscall"

	"go.uber.org/zap"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/16 15:21
 * @file: log_rewrite.go
 * @description: LogConfig rewrite
 */

func Info(args ...interface{}) {
	ensureInit()
	sugar.Info(args...)
}

func Infof(format string, args ...interface{}) {
	ensureInit()
	sugar.Infof(format, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	ensureInit()
	sugar.Infow(msg, keysAndValues...)
}

func WithContext(ctx context.Context) *zap.SugaredLogger {
	ensureInit()
	return sugar.With(ctx)
}

func Debug(args ...interface{}) {
	ensureInit()
	sugar.Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	ensureInit()
	sugar.Debugf(format, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	ensureInit()
	sugar.Debugw(msg, keysAndValues...)
}

func Warn(args ...interface{}) {
	ensureInit()
	sugar.Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	ensureInit()
	sugar.Warnf(format, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	ensureInit()
	sugar.Warnw(msg, keysAndValues...)
}

func Error(args ...interface{}) {
	ensureInit()
	sugar.Error(args...)
}

func Errorf(format string, args ...interface{}) {
	ensureInit()
	sugar.Errorf(format, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	ensureInit()
	sugar.Errorw(msg, keysAndValues...)
}

func Fatal(args ...interface{}) {
	ensureInit()
	sugar.Fatal(args...)
}

func Fatalf(format string, args ...interface{}) {
	ensureInit()
	sugar.Fatalf(format, args...)
}

// Sync flushes any buffered log entries on the global logger. The
// EINVAL/ENOTTY errors that fsync reports for a console or pipe (the
// default stdout output) are not treated as failures.
func Sync() error {
	ensureInit()
	if err := sugar.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		return err
	}
	return nil
}
