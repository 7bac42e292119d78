// Package logger provides logging for the aipilot CLI, worker and servers.
// Warnings and errors are always written. When verbose mode is enabled via
// the --verbose flag, debug and info messages are written too, so users can
// follow a document through the pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	base              = build(os.Stderr, false)
)

func build(w io.Writer, v bool) *zap.SugaredLogger {
	level := zapcore.WarnLevel
	if v {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core).Sugar()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build(output, verbose)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build(output, verbose)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Logger is a structured logger carrying fixed key-value pairs.
// Long-running components (worker, HTTP server) log through one.
type Logger struct {
	kv []any
}

// With returns a structured logger with the given key-value pairs.
// Values under secret-looking keys are redacted.
func With(keysAndValues ...any) *Logger {
	return &Logger{kv: sanitize(keysAndValues)}
}

// With returns a child logger with additional key-value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	kv := make([]any, 0, len(l.kv)+len(keysAndValues))
	kv = append(kv, l.kv...)
	kv = append(kv, sanitize(keysAndValues)...)
	return &Logger{kv: kv}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	return current().With(l.kv...)
}

// Debug logs msg at debug level.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar().Debugw(msg, sanitize(keysAndValues)...)
}

// Info logs msg at info level.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar().Infow(msg, sanitize(keysAndValues)...)
}

// Warn logs msg at warn level.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar().Warnw(msg, sanitize(keysAndValues)...)
}

// Error logs msg at error level.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar().Errorw(msg, sanitize(keysAndValues)...)
}

func sanitize(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		if isSecretKey(key) {
			out = append(out, key, "[REDACTED]")
			continue
		}
		out = append(out, key, kv[i+1])
	}
	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range []string{"api_key", "apikey", "token", "password", "secret", "dsn"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
