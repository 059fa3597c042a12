package logging

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is a plain-text leveled logger writing to stderr.
type Logger struct {
	logger *log.Logger
	level  Level
	mu     sync.RWMutex
}

func NewLogger(prefix string, level string) *Logger {
	return &Logger{
		logger: log.New(os.Stderr, prefix, log.LstdFlags|log.Lmicroseconds),
		level:  parseLevel(level),
	}
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func levelToString(level Level) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

// print renders printf-style when the format string carries verbs, otherwise
// appends the args as trailing key=value pairs so call sites can use either
// convention interchangeably with the structured logger.
func (l *Logger) print(level Level, format string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}
	msg := format
	if strings.Contains(format, "%") {
		msg = fmt.Sprintf(format, args...)
	} else if len(args) > 0 {
		var sb strings.Builder
		sb.WriteString(format)
		for i := 0; i+1 < len(args); i += 2 {
			fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
		}
		if len(args)%2 == 1 {
			fmt.Fprintf(&sb, " extra=%v", args[len(args)-1])
		}
		msg = sb.String()
	}
	l.logger.Printf("[%s] %s", levelToString(level), msg)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.print(DebugLevel, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.print(InfoLevel, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.print(WarnLevel, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.print(ErrorLevel, format, args...) }

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.logger.Fatalf("[FATAL] "+format, args...)
}

// WithContext returns the logger unchanged; the text logger carries no fields.
func (l *Logger) WithContext(ctx context.Context) ContextLogger { return l }

// WithField returns the logger unchanged, kept so Logger satisfies ContextLogger.
func (l *Logger) WithField(key string, value interface{}) ContextLogger { return l }

// WithFields returns the logger unchanged.
func (l *Logger) WithFields(fields map[string]interface{}) ContextLogger { return l }
