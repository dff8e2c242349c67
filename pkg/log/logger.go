// Package log provides leveled console logging with an optional run log
// file, shared by all covmark subcommands.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents logging verbosity
type Level int

const (
	ErrorLevel Level = iota
	InfoLevel
	DebugLevel
)

var levelNames = map[Level]string{
	ErrorLevel: "ERROR",
	InfoLevel:  "INFO",
	DebugLevel: "DEBUG",
}

// Logger writes leveled messages to the console and, when a log directory
// is configured, mirrors everything into a timestamped log file.
type Logger struct {
	level      Level
	mu         sync.Mutex
	stdout     io.Writer
	stderr     io.Writer
	logFile    *os.File
	fileLogger *log.Logger
}

// New creates a logger. With a non-empty logDir, a covmark-<timestamp>.log
// file is created there and receives every message regardless of level.
func New(level Level, logDir string) (*Logger, error) {
	l := &Logger{
		level:  level,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		logPath := filepath.Join(logDir, fmt.Sprintf("covmark-%s.log", time.Now().Format("20060102-150405")))
		f, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("create log file: %w", err)
		}
		l.logFile = f
		l.fileLogger = log.New(f, "", log.LstdFlags)
	}

	return l, nil
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level > l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.fileLogger != nil {
		l.fileLogger.Printf("[%s] %s", levelNames[level], msg)
	}

	if level == ErrorLevel {
		fmt.Fprintf(l.stderr, "❌ %s\n", msg)
	} else {
		fmt.Fprintf(l.stdout, "%s\n", msg)
	}
}

// tagged writes an always-shown message with a console emoji prefix.
func (l *Logger) tagged(tag, emoji, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.fileLogger != nil {
		l.fileLogger.Printf("[%s] %s", tag, msg)
	}
	fmt.Fprintf(l.stdout, "%s %s\n", emoji, msg)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ErrorLevel, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Warning logs a warning message (always shown)
func (l *Logger) Warning(format string, args ...interface{}) {
	l.tagged("WARNING", "⚠️ ", format, args...)
}

// Success logs a success message (always shown)
func (l *Logger) Success(format string, args ...interface{}) {
	l.tagged("SUCCESS", "✅", format, args...)
}

// ParseLevel parses a string into a log level
func ParseLevel(s string) (Level, error) {
	switch s {
	case "error":
		return ErrorLevel, nil
	case "info":
		return InfoLevel, nil
	case "debug":
		return DebugLevel, nil
	default:
		return InfoLevel, fmt.Errorf("invalid log level: %s (valid: error, info, debug)", s)
	}
}
