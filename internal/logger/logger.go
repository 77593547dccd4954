// Package logger provides structured logging for metacoord
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with metacoord-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
	Service    string // defaults to "metacoord"
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

	service := cfg.Service
	if service == "" {
		service = "metacoord"
	}

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	// Add caller information if requested
	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything, for tests and defaults
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
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

// GrpcLogger returns a logger for gRPC operations
func (l *Logger) GrpcLogger(method string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "grpc").
			Str("method", method).
			Logger(),
	}
}

// DispatchLogger returns a logger for change event dispatch
func (l *Logger) DispatchLogger() *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "dispatch").
			Logger(),
	}
}

// RepositoryLogger returns a logger for coordination store access
func (l *Logger) RepositoryLogger(kind string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "repository").
			Str("repository", kind).
			Logger(),
	}
}

// LogGrpcRequest logs gRPC request with structured fields
func (l *Logger) LogGrpcRequest(method string, duration time.Duration, err error) {
	event := l.zlog.Debug().
		Str("component", "grpc").
		Str("method", method).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().
			Str("component", "grpc").
			Str("method", method).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("gRPC request completed")
}

// LogEventHandled logs one handler invocation for a change event
func (l *Logger) LogEventHandled(handler, key, eventType string, duration time.Duration, err error) {
	event := l.zlog.Debug().
		Str("handler", handler).
		Str("key", key).
		Str("type", eventType).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().
			Str("handler", handler).
			Str("key", key).
			Str("type", eventType).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("Change event handled")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(port int) {
	l.zlog.Info().
		Str("event", "server_start").
		Int("port", port).
		Msg("metacoord server starting")
}

// LogServerReady logs when server is ready
func (l *Logger) LogServerReady(port int) {
	l.zlog.Info().
		Str("event", "server_ready").
		Int("port", port).
		Msg("metacoord server ready to accept connections")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("metacoord server shutting down")
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
