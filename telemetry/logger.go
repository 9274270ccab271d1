// Package telemetry wires structured logging (go.uber.org/zap) and metrics
// (github.com/prometheus/client_golang) into the engine, grounded on
// arx-os-arxos's service-logger and promauto-collector idiom. Both are
// optional: a nil *Metrics means "don't record," and NopLogger is the
// default Logger so the engine stays silent unless a caller opts in.
package telemetry

import "go.uber.org/zap"

// Logger is the engine-wide logging handle. engine.Engine and
// exec.Executor hold one, but no package in this module writes a log entry
// through it.
type Logger struct {
	z *zap.Logger
}

// NopLogger returns a Logger that discards everything, the same opt-in
// shape as zap.NewNop() — the default so the engine is silent unless a
// caller wires one in.
func NopLogger() *Logger { return &Logger{z: zap.NewNop()} }

// New wraps an existing zap.Logger, e.g. one a caller built with
// zap.NewProduction() or zap.NewDevelopment().
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

func (l *Logger) fields() *zap.Logger {
	if l == nil || l.z == nil {
		return zap.NewNop()
	}
	return l.z
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.fields().Debug(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.fields().Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.fields().Error(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.fields().Info(msg, fields...) }
