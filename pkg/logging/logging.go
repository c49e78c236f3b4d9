package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with context support
type Logger struct {
	logger *zap.Logger
}

// LogLevel defines the logging level
type LogLevel zapcore.Level

const (
	DEBUG LogLevel = LogLevel(zapcore.DebugLevel)
	INFO  LogLevel = LogLevel(zapcore.InfoLevel)
	WARN  LogLevel = LogLevel(zapcore.WarnLevel)
	ERROR LogLevel = LogLevel(zapcore.ErrorLevel)
	FATAL LogLevel = LogLevel(zapcore.FatalLevel)
)

// contextKey defines a type for context keys
type contextKey string

const (
	runIDKey  contextKey = "run_id"
	workerKey contextKey = "worker"
)

func productionConfig(level LogLevel) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.Level(level))
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config
}

// NewLogger creates a new Logger instance writing to stderr
func NewLogger(level LogLevel) *Logger {
	logger, err := productionConfig(level).Build()
	if err != nil {
		return NewNop()
	}
	return &Logger{logger: logger}
}

// NewFileLogger creates a Logger that appends to path.
func NewFileLogger(path string, level LogLevel) (*Logger, error) {
	config := productionConfig(level)
	config.OutputPaths = []string{path}
	config.Sampling = nil
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger: logger}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{logger: zap.NewNop()}
}

// New wraps an existing zap logger.
func New(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

// ParseLevel maps "debug", "info", ... to a LogLevel. Empty means INFO.
func ParseLevel(text string) (LogLevel, error) {
	if text == "" {
		return INFO, nil
	}
	lvl, err := zapcore.ParseLevel(text)
	if err != nil {
		return INFO, err
	}
	return LogLevel(lvl), nil
}

// NewRunID returns a fresh identifier for one engine run.
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID adds run_id to context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithWorker tags the context with a worker number.
func WithWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey, worker)
}

func contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		fields = append(fields, zap.String("run_id", runID))
	}
	if worker, ok := ctx.Value(workerKey).(int); ok {
		fields = append(fields, zap.Int("worker", worker))
	}
	return fields
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{logger: l.logger.With(fields...)}
}

// logMessage logs a message with the specified level and context
func (l *Logger) logMessage(ctx context.Context, level LogLevel, msg string, fields ...zap.Field) {
	if extra := contextFields(ctx); len(extra) > 0 {
		fields = append(extra, fields...)
	}
	logger := l.logger
	switch level {
	case DEBUG:
		logger.Debug(msg, fields...)
	case INFO:
		logger.Info(msg, fields...)
	case WARN:
		logger.Warn(msg, fields...)
	case ERROR:
		logger.Error(msg, fields...)
	case FATAL:
		logger.Fatal(msg, fields...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, DEBUG, msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, INFO, msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, WARN, msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, ERROR, msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, FATAL, msg, fields...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

// Zap exposes the wrapped logger, e.g. for zap.ReplaceGlobals.
func (l *Logger) Zap() *zap.Logger {
	return l.logger
}
