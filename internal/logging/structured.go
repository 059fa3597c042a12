package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// StructuredLogger emits JSON log entries with correlation IDs.
type StructuredLogger struct {
	level   Level
	service string
	version string
	mu      sync.RWMutex
	encoder *json.Encoder
	fields  map[string]interface{}
}

// LogEntry is one structured log line.
type LogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Level         string                 `json:"level"`
	Service       string                 `json:"service"`
	Version       string                 `json:"version,omitempty"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
}

// NewStructuredLogger creates a JSON logger writing to stderr.
func NewStructuredLogger(service, version, level string) *StructuredLogger {
	return NewStructuredLoggerTo(os.Stderr, service, version, level)
}

// NewStructuredLoggerTo creates a JSON logger writing to w. Used by tests.
func NewStructuredLoggerTo(w io.Writer, service, version, level string) *StructuredLogger {
	return &StructuredLogger{
		level:   parseLevel(level),
		service: service,
		version: version,
		encoder: json.NewEncoder(w),
		fields:  make(map[string]interface{}),
	}
}

func (l *StructuredLogger) clone() *StructuredLogger {
	newLogger := &StructuredLogger{
		level:   l.level,
		service: l.service,
		version: l.version,
		encoder: l.encoder,
		fields:  make(map[string]interface{}),
	}
	l.mu.RLock()
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	l.mu.RUnlock()
	return newLogger
}

// WithContext returns a logger carrying the correlation ID from ctx, if any.
func (l *StructuredLogger) WithContext(ctx context.Context) ContextLogger {
	newLogger := l.clone()
	if correlationID, ok := CorrelationIDFromContext(ctx); ok {
		newLogger.fields["correlation_id"] = correlationID
	}
	return newLogger
}

// WithFields returns a logger with additional fields attached to every entry.
func (l *StructuredLogger) WithFields(fields map[string]interface{}) ContextLogger {
	newLogger := l.clone()
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// WithField returns a logger with one additional field.
func (l *StructuredLogger) WithField(key string, value interface{}) ContextLogger {
	return l.WithFields(map[string]interface{}{key: value})
}

// addArgsAsFields folds variadic args into the entry as key-value pairs.
func addArgsAsFields(entry *LogEntry, args []interface{}) {
	if len(args) == 0 {
		return
	}
	if entry.Fields == nil {
		entry.Fields = make(map[string]interface{})
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			entry.Fields[key] = args[i+1]
		}
	}
	if len(args)%2 == 1 {
		entry.Fields["extra"] = args[len(args)-1]
	}
}

func (l *StructuredLogger) log(level Level, message string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelToString(level),
		Service:   l.service,
		Version:   l.version,
		Message:   message,
	}

	// Printf-style messages consume args as format values; everything left
	// over (or everything, when there are no verbs) becomes key-value fields.
	if len(args) > 0 {
		verbCount := 0
		for i := 0; i < len(message)-1; i++ {
			if message[i] == '%' && message[i+1] != '%' {
				verbCount++
			}
		}
		if strings.Contains(message, "%") && verbCount > 0 && len(args) >= verbCount {
			entry.Message = fmt.Sprintf(message, args[:verbCount]...)
			addArgsAsFields(&entry, args[verbCount:])
		} else {
			addArgsAsFields(&entry, args)
		}
	}

	l.mu.RLock()
	for k, v := range l.fields {
		if k == "correlation_id" {
			if id, ok := v.(string); ok {
				entry.CorrelationID = id
				continue
			}
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]interface{})
		}
		entry.Fields[k] = v
	}
	l.mu.RUnlock()

	if err := l.encoder.Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s (json encoding failed: %v)\n",
			entry.Timestamp, entry.Level, entry.Message, err)
	}
}

func (l *StructuredLogger) Debug(message string, args ...interface{}) {
	l.log(DebugLevel, message, args...)
}

func (l *StructuredLogger) Info(message string, args ...interface{}) {
	l.log(InfoLevel, message, args...)
}

func (l *StructuredLogger) Warn(message string, args ...interface{}) {
	l.log(WarnLevel, message, args...)
}

func (l *StructuredLogger) Error(message string, args ...interface{}) {
	l.log(ErrorLevel, message, args...)
}

// Fatal logs the message and exits.
func (l *StructuredLogger) Fatal(message string, args ...interface{}) {
	l.log(ErrorLevel, message, args...)
	os.Exit(1)
}

func (l *StructuredLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *StructuredLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *StructuredLogger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}
