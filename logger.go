package webkit

import (
	"go.uber.org/zap"
)

// Logger is the structured logging interface used throughout the runtime.
// The module registry, plugin registry and app orchestrator log through
// this interface with key-value pairs rather than writing to stdout
// directly, so embedders can route framework logs wherever their own
// application logs go. The router and the DI container do not log.
//
// Example:
//
//	logger.Info("module registered", "module", "users", "exports", 2)
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// zapLogger adapts a *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps an existing zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{sugar: l.Sugar()}
}

// NewProductionLogger builds a JSON-encoded, info-level-and-above Logger
// suitable for production services.
func NewProductionLogger() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

// NewDevelopmentLogger builds a human-readable, debug-level Logger suitable
// for local development.
func NewDevelopmentLogger() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

// NewNopLogger returns a Logger that discards everything. Useful as a
// default when an embedder has not supplied one, and in tests.
func NewNopLogger() Logger {
	return NewZapLogger(zap.NewNop())
}

func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
