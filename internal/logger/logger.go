package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity level of a log entry
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// contextKey is the type used for context keys
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// Entry represents a single log entry
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     Level                  `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger writes structured JSON log entries
type Logger struct {
	output   io.Writer
	minLevel Level
}

// Config holds logger configuration
type Config struct {
	Output   io.Writer
	MinLevel Level
}

// New creates a new logger with the given configuration
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.MinLevel == "" {
		cfg.MinLevel = LevelInfo
	}
	return &Logger{output: cfg.Output, minLevel: cfg.MinLevel}
}

// NewWithLevel creates a new logger with a log level given as a string
func NewWithLevel(level string) *Logger {
	return New(Config{MinLevel: ParseLevel(level)})
}

// ParseLevel converts a string log level to a Level, defaulting to info
func ParseLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Package-level logger instances
var (
	mu             sync.RWMutex
	appLogger      = New(Config{})
	databaseLogger = New(Config{})
)

// AppLogger returns the shared application logger
func AppLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return appLogger
}

// DatabaseLogger returns the shared database logger
func DatabaseLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return databaseLogger
}

// SetAppLogger replaces the application logger (primarily for testing)
func SetAppLogger(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	appLogger = l
}

// SetDatabaseLogger replaces the database logger (primarily for testing)
func SetDatabaseLogger(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	databaseLogger = l
}

// InitializeLoggers configures the shared loggers with the given levels
func InitializeLoggers(appLevel, dbLevel string) {
	mu.Lock()
	defer mu.Unlock()
	appLogger = NewWithLevel(appLevel)
	databaseLogger = NewWithLevel(dbLevel)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.log(LevelDebug, msg, nil, nil)
}

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.log(LevelInfo, msg, nil, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.log(LevelWarn, msg, nil, nil)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error) {
	l.log(LevelError, msg, nil, err)
}

// InfoContext logs an info message with request/user IDs from ctx
func (l *Logger) InfoContext(ctx context.Context, msg string) {
	l.log(LevelInfo, msg, contextFields(ctx, nil), nil)
}

// WarnContext logs a warning message with request/user IDs from ctx
func (l *Logger) WarnContext(ctx context.Context, msg string) {
	l.log(LevelWarn, msg, contextFields(ctx, nil), nil)
}

// ErrorContext logs an error message with request/user IDs from ctx
func (l *Logger) ErrorContext(ctx context.Context, msg string, err error) {
	l.log(LevelError, msg, contextFields(ctx, nil), err)
}

// WithFields returns a logger that attaches fields to every entry
func (l *Logger) WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{logger: l, fields: fields}
}

func (l *Logger) log(level Level, msg string, fields map[string]interface{}, err error) {
	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Context:   fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	data, _ := json.Marshal(entry)
	fmt.Fprintln(l.output, string(data))
}

func contextFields(ctx context.Context, fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+2)
	if requestID := ctx.Value(requestIDKey); requestID != nil {
		out["request_id"] = requestID
	}
	if userID := ctx.Value(userIDKey); userID != nil {
		out["user_id"] = userID
	}
	for k, v := range fields {
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FieldLogger is a logger with pre-set fields
type FieldLogger struct {
	logger *Logger
	fields map[string]interface{}
}

// Debug logs a debug message with fields
func (fl *FieldLogger) Debug(msg string) {
	fl.logger.log(LevelDebug, msg, fl.fields, nil)
}

// Info logs an info message with fields
func (fl *FieldLogger) Info(msg string) {
	fl.logger.log(LevelInfo, msg, fl.fields, nil)
}

// Warn logs a warning message with fields
func (fl *FieldLogger) Warn(msg string) {
	fl.logger.log(LevelWarn, msg, fl.fields, nil)
}

// Error logs an error message with fields
func (fl *FieldLogger) Error(msg string, err error) {
	fl.logger.log(LevelError, msg, fl.fields, err)
}

// ErrorContext logs an error message with fields and context IDs
func (fl *FieldLogger) ErrorContext(ctx context.Context, msg string, err error) {
	fl.logger.log(LevelError, msg, contextFields(ctx, fl.fields), err)
}

// ContextWithRequestID adds a request ID to the context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextWithUserID adds a user ID to the context
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
