// Package logger provides leveled logging for the application.
// It supports both printf-style messages and structured fields, with
// optional JSON output for log aggregation.
package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level represents a log severity level.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel atomic.Int32
	jsonOutput   atomic.Bool
)

func init() {
	currentLevel.Store(int32(LevelInfo))
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		currentLevel.Store(int32(LevelDebug))
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		jsonOutput.Store(true)
	}
}

// Configure applies logging settings, typically from the loaded config.
func Configure(level string, format string) {
	switch strings.ToLower(level) {
	case "debug":
		currentLevel.Store(int32(LevelDebug))
	case "warn":
		currentLevel.Store(int32(LevelWarn))
	case "error":
		currentLevel.Store(int32(LevelError))
	default:
		currentLevel.Store(int32(LevelInfo))
	}
	jsonOutput.Store(strings.EqualFold(format, "json"))
}

// Field represents a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Debug logs debug messages.
func Debug(format string, args ...interface{}) {
	logAt(LevelDebug, "DEBUG", format, args...)
}

// Info logs informational messages.
func Info(format string, args ...interface{}) {
	logAt(LevelInfo, "INFO", format, args...)
}

// Warn logs warning messages.
func Warn(format string, args ...interface{}) {
	logAt(LevelWarn, "WARN", format, args...)
}

// Error logs error messages.
func Error(format string, args ...interface{}) {
	logAt(LevelError, "ERROR", format, args...)
}

// DebugS logs a structured debug message.
func DebugS(msg string, fields ...Field) { logStructured(LevelDebug, "DEBUG", msg, fields...) }

// InfoS logs a structured informational message.
func InfoS(msg string, fields ...Field) { logStructured(LevelInfo, "INFO", msg, fields...) }

// WarnS logs a structured warning message.
func WarnS(msg string, fields ...Field) { logStructured(LevelWarn, "WARN", msg, fields...) }

// ErrorS logs a structured error message.
func ErrorS(msg string, fields ...Field) { logStructured(LevelError, "ERROR", msg, fields...) }

func logAt(level Level, label, format string, args ...interface{}) {
	if int32(level) < currentLevel.Load() {
		return
	}
	log.Printf(label+": "+format, args...)
}

func logStructured(level Level, label, msg string, fields ...Field) {
	if int32(level) < currentLevel.Load() {
		return
	}

	if jsonOutput.Load() {
		entry := map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"level":     label,
			"message":   msg,
		}
		for _, f := range fields {
			entry[f.Key] = f.Value
		}
		data, _ := json.Marshal(entry)
		log.Println(string(data))
		return
	}

	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf(" %s=%v", f.Key, f.Value))
	}
	log.Printf("%s: %s%s", label, msg, sb.String())
}
