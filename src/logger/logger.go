package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"market-confluence/src/models"
)

// -----------------------------------------------------------------------------

// Logger is a named component logger backed by zerolog.
type Logger struct {
	name string
	zl   zerolog.Logger
}

var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stdout
)

// SetOutput redirects every logger created afterwards.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}

// -----------------------------------------------------------------------------

// NewLogger creates a Logger for the named component. A nil config logs at
// INFO on the console.
func NewLogger(config *models.MConfig, name string) *Logger {
	level, format := zerolog.InfoLevel, "console"
	if config != nil {
		level = ParseLevel(config.LogLevel)
		if config.LogFormat != "" {
			format = config.LogFormat
		}
	}

	outputMu.RLock()
	w := output
	outputMu.RUnlock()

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: true}
	}

	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", name).
		Logger()

	return &Logger{name: name, zl: zl}
}

// ParseLevel maps the configured level names (DEBUG, INFO, WARNING, ERROR)
// onto zerolog levels. Unknown names fall back to INFO.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARNING", "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// Zerolog exposes the underlying logger for structured fields.
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zl }

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.zl.Fatal().Msg(fmt.Sprintf(format, args...))
}
