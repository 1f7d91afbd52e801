package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

type Logger struct {
	*zap.Logger
}

func NewLogger(level string) (*Logger, error) {
	config := zap.NewProductionConfig()

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = zapLevel > zapcore.DebugLevel

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// Nop returns a logger that discards everything. Used by tests and as the
// fallback before settings are loaded.
func Nop() *Logger {
	return &Logger{zap.NewNop()}
}

// ContextWithOperationID tags ctx with the id of the running command.
func ContextWithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// OperationID returns the id stored by ContextWithOperationID.
func OperationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}

func (l *Logger) WithOperationID(ctx context.Context) *zap.Logger {
	if id, ok := OperationID(ctx); ok {
		return l.With(zap.String("op", id))
	}
	return l.Logger
}
