// Package logger is a small leveled logger tagged by module name.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel is the severity of a message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	SILENT // nothing is printed
)

var (
	levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "SILENT"}

	levelColors = [...]string{
		"\033[36m", // cyan
		"\033[32m", // green
		"\033[33m", // yellow
		"\033[31m", // red
		"",
	}

	resetColor = "\033[0m"
)

// Logger writes leveled, module-tagged lines. A Logger also owns a single
// carriage-return status line used for encode progress; any regular line
// printed while a status line is showing first ends it.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	out      io.Writer
	useColor bool
	std      *log.Logger

	statusLen int
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init installs the global logger. Only the first call has an effect.
func Init(level LogLevel, output io.Writer, useColor bool) {
	once.Do(func() {
		defaultLogger = New(level, output, useColor)
	})
}

// New creates a Logger. A nil output means stderr.
func New(level LogLevel, output io.Writer, useColor bool) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		level:    level,
		out:      output,
		useColor: useColor,
		std:      log.New(output, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
}

// SetLevel changes the minimum level printed.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the minimum level printed.
func (l *Logger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) log(level LogLevel, module string, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || level >= SILENT {
		return
	}
	l.endStatusLocked()

	prefix := "[" + levelNames[level] + "]"
	if l.useColor {
		prefix = levelColors[level] + prefix + resetColor
	}
	if module != "" {
		prefix += " [" + module + "]"
	}
	l.std.Printf("%s %s", prefix, fmt.Sprintf(format, args...))
}

// Progress redraws the status line in place. It is shown at INFO level.
func (l *Logger) Progress(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if INFO < l.level {
		return
	}
	line := fmt.Sprintf(format, args...)
	pad := ""
	if n := l.statusLen - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(l.out, "\r%s%s", line, pad)
	l.statusLen = len(line)
}

// EndProgress terminates an active status line.
func (l *Logger) EndProgress() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endStatusLocked()
}

func (l *Logger) endStatusLocked() {
	if l.statusLen > 0 {
		fmt.Fprintln(l.out)
		l.statusLen = 0
	}
}

func (l *Logger) Debug(module string, format string, args ...interface{}) {
	l.log(DEBUG, module, format, args...)
}

func (l *Logger) Info(module string, format string, args ...interface{}) {
	l.log(INFO, module, format, args...)
}

func (l *Logger) Warn(module string, format string, args ...interface{}) {
	l.log(WARN, module, format, args...)
}

func (l *Logger) Error(module string, format string, args ...interface{}) {
	l.log(ERROR, module, format, args...)
}

// Global helpers. They are no-ops until Init is called.

func SetLevel(level LogLevel) {
	if defaultLogger != nil {
		defaultLogger.SetLevel(level)
	}
}

func GetLevel() LogLevel {
	if defaultLogger != nil {
		return defaultLogger.GetLevel()
	}
	return INFO
}

func Debug(module string, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debug(module, format, args...)
	}
}

func Info(module string, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Info(module, format, args...)
	}
}

func Warn(module string, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warn(module, format, args...)
	}
}

func Error(module string, format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Error(module, format, args...)
	}
}

func Progress(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Progress(format, args...)
	}
}

func EndProgress() {
	if defaultLogger != nil {
		defaultLogger.EndProgress()
	}
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "silent", "none", "quiet":
		return SILENT, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s", s)
	}
}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}
