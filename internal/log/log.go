// Package log provides structured, category-tagged logging for the action service.
// Logging is disabled until Init or InitWriter is called (the CLI does so when
// --debug or ACTION_DEBUG is set). Every written entry is also published on a
// pubsub broker so in-process listeners can tail the log.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/malikkrehic/action/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a Level.
// Unknown values fall back to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related log messages.
type Category string

const (
	CatAction   Category = "action"   // Invocation pipeline: resolve, coerce, validate, invoke
	CatRegistry Category = "registry" // Handler registration
	CatHTTP     Category = "http"     // HTTP transport
	CatMCP      Category = "mcp"      // MCP tool transport
	CatDB       Category = "db"       // Database operations and migrations
	CatConfig   Category = "config"   // Configuration loading/saving
	CatCache    Category = "cache"    // Idempotency cache
	CatTracing  Category = "tracing"  // Trace provider lifecycle
)

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	defaultLogger *Logger
	once          sync.Once
	initMu        sync.Mutex
)

// Init initializes the global logger to append to the file at path.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		var l *Logger
		l, initErr = newFileLogger(path)
		if initErr == nil {
			setDefault(l)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	l := current()
	if l == nil {
		return nil, fmt.Errorf("logger initialization failed or already attempted")
	}
	return func() {
		if l.file != nil {
			_ = l.file.Close()
		}
	}, nil
}

// InitWriter replaces the global logger with one writing to w.
// Used for stderr logging and by tests.
func InitWriter(w io.Writer, minLevel Level) {
	setDefault(&Logger{
		writer:   w,
		minLevel: minLevel,
		broker:   pubsub.NewBroker[string](),
	})
}

func newFileLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: path is the user-configured log path
	if err != nil {
		return nil, err
	}

	return &Logger{
		file:     f,
		writer:   f,
		minLevel: LevelDebug,
		broker:   pubsub.NewBroker[string](),
	}, nil
}

func setDefault(l *Logger) {
	initMu.Lock()
	defer initMu.Unlock()
	if defaultLogger != nil && defaultLogger.broker != nil {
		defaultLogger.broker.Close()
	}
	defaultLogger = l
}

func current() *Logger {
	initMu.Lock()
	defer initMu.Unlock()
	return defaultLogger
}

// Initialized reports whether a logger is installed. Unlike Subscribe it
// leaves the broker untouched.
func Initialized() bool {
	l := current()
	return l != nil && l.broker != nil
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	write(LevelError, cat, msg, fields...)
}

func write(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.minLevel {
		return
	}

	// Format: 2025-12-06T10:45:00 [ERROR] [action] message key=value key2=value2
	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	entry := b.String()

	if l.writer != nil {
		_, _ = io.WriteString(l.writer, entry)
	}

	if l.broker != nil {
		l.broker.Publish(pubsub.LoggedEvent, entry)
	}
}

// Subscribe returns a channel receiving every log entry written after the call.
// Returns nil when logging has not been initialized.
func Subscribe(ctx context.Context) <-chan pubsub.Event[string] {
	l := current()
	if l == nil || l.broker == nil {
		return nil
	}
	return l.broker.Subscribe(ctx)
}
