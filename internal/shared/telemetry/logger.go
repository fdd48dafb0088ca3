package telemetry

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, log.InfoLevel)
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return &log.Logger{
		Level:      level,
		TimeField:  "ts",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Writer:     &log.IOWriter{Writer: w},
	}
}

// SetLevel sets the minimum level written. Unknown names fall back to info.
func SetLevel(name string) {
	level := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if level == 0 || strings.TrimSpace(name) == "" {
		level = log.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(currentWriter(), level)
}

// SetOutput redirects log lines and returns a func that restores the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := logger
	logger = newLogger(w, prev.Level)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		logger = prev
	}
}

func currentWriter() io.Writer {
	if w, ok := logger.Writer.(*log.IOWriter); ok {
		return w.Writer
	}
	return os.Stdout
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	write(log.DebugLevel, msg, fields)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(log.InfoLevel, msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(log.WarnLevel, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(log.ErrorLevel, msg, fields)
}

func write(level log.Level, msg string, fields map[string]any) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	var e *log.Entry
	switch level {
	case log.DebugLevel:
		e = l.Debug()
	case log.WarnLevel:
		e = l.Warn()
	case log.ErrorLevel:
		e = l.Error()
	default:
		e = l.Info()
	}
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(log.Fields(fields))
	}
	e.Msg(msg)
}
