package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	levelMu      sync.RWMutex
	currentLevel LogLevel
	levelOnce    sync.Once
)

// ParseLevel converts a level name into a LogLevel.
// Unknown names fall back to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// levelFromEnv resolves the level from DEBUG and LOG_LEVEL.
// DEBUG takes precedence when set to a truthy value.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

func initLevel() {
	levelOnce.Do(func() {
		levelMu.Lock()
		currentLevel = levelFromEnv()
		levelMu.Unlock()
	})
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	levelMu.RLock()
	defer levelMu.RUnlock()
	return currentLevel
}

// SetLevel overrides the level read from the environment.
func SetLevel(level LogLevel) {
	initLevel()
	levelMu.Lock()
	currentLevel = level
	levelMu.Unlock()
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	logAt(LevelDebug, "", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logAt(LevelInfo, "", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logAt(LevelWarn, "", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logAt(LevelError, "", format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Printf is a pass-through to log.Printf for messages that should always print
func Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func logAt(level LogLevel, component, format string, args ...interface{}) {
	if GetLevel() > level {
		return
	}
	prefix := "[" + strings.ToUpper(level.String()) + "] "
	if component != "" {
		prefix += "[" + component + "] "
	}
	log.Printf(prefix+format, args...)
}

// Logger tags every message with a component name, e.g.
//
//	[INFO] [bridge] channel registered
type Logger struct {
	component string
}

// New returns a Logger for the named component.
func New(component string) *Logger {
	return &Logger{component: component}
}

// Component returns the name the logger tags messages with.
func (l *Logger) Component() string {
	if l == nil {
		return ""
	}
	return l.component
}

// Debug logs a debug message for the component
func (l *Logger) Debug(format string, args ...interface{}) {
	logAt(LevelDebug, l.Component(), format, args...)
}

// Info logs an info message for the component
func (l *Logger) Info(format string, args ...interface{}) {
	logAt(LevelInfo, l.Component(), format, args...)
}

// Warn logs a warning for the component
func (l *Logger) Warn(format string, args ...interface{}) {
	logAt(LevelWarn, l.Component(), format, args...)
}

// Error logs an error for the component
func (l *Logger) Error(format string, args ...interface{}) {
	logAt(LevelError, l.Component(), format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
