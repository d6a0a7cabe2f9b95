// Package logger provides structured logging for digdoc
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with digdoc-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	// Set global log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	// Create logger
	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("service", "digdoc").
		Logger()

	// Add caller information if requested
	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) *zerolog.Event {
	return l.zlog.Fatal().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// channelLogger returns a logger scoped to one of the driver's four logical
// channels (commit, rollback, save, ugh), tagged with the absolute path of
// the file concerned.
func (l *Logger) channelLogger(channel, path string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("channel", channel).
			Str("path", path).
			Logger(),
	}
}

// CommitLogger scopes logging to the commit channel: successful
// certifications of a converted file.
func (l *Logger) CommitLogger(path string) *Logger { return l.channelLogger("commit", path) }

// RollbackLogger scopes logging to the rollback channel: per-file
// cancellations of the conversion pipeline.
func (l *Logger) RollbackLogger(path string) *Logger { return l.channelLogger("rollback", path) }

// SaveLogger scopes logging to the save channel: file-system side effects
// performed by the driver (backups, writes, reloads).
func (l *Logger) SaveLogger(path string) *Logger { return l.channelLogger("save", path) }

// UghLogger scopes logging to the ugh channel: adapter-level errors that
// don't fit the commit/rollback/save vocabulary.
func (l *Logger) UghLogger(path string) *Logger { return l.channelLogger("ugh", path) }

// LogCommit records a successful per-file certification.
func (l *Logger) LogCommit(path string, duration time.Duration) {
	l.CommitLogger(path).zlog.Info().
		Dur("duration_ms", duration).
		Msg("conversion certified")
}

// LogRollback records a per-file cancellation with its reason.
func (l *Logger) LogRollback(path string, reason string, err error) {
	event := l.RollbackLogger(path).zlog.Warn().Str("reason", reason)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("conversion rolled back")
}

// LogSave records a file-system side effect performed during conversion
// (backup written, format written, file reloaded).
func (l *Logger) LogSave(path string, action string) {
	l.SaveLogger(path).zlog.Info().
		Str("action", action).
		Msg("file-system side effect")
}

// LogUgh records an adapter-level error outside the commit/rollback/save
// vocabulary (e.g. a rule-set inconsistency discovered mid-traversal).
func (l *Logger) LogUgh(path string, err error) {
	l.UghLogger(path).zlog.Error().Err(err).Msg("adapter-level error")
}

// LogDriverStart logs the conversion driver starting a directory walk.
func (l *Logger) LogDriverStart(basePath, ruleSetPath string) {
	l.zlog.Info().
		Str("event", "driver_start").
		Str("base_path", basePath).
		Str("rule_set", ruleSetPath).
		Msg("digdoc conversion driver starting")
}

// LogDriverDone logs the conversion driver finishing a directory walk.
func (l *Logger) LogDriverDone(processed, committed, rolledBack int) {
	l.zlog.Info().
		Str("event", "driver_done").
		Int("processed", processed).
		Int("committed", committed).
		Int("rolled_back", rolledBack).
		Msg("digdoc conversion driver finished")
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// Initialize with defaults if not set
		InitGlobalLogger(Config{
			Level:  "info",
			Pretty: true,
		})
	}
	return globalLogger
}
