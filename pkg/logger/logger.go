package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// OutputType defines the type of output for the logger
type OutputType string

const (
	// OutputConsole outputs logs to stderr so command output on stdout stays clean
	OutputConsole OutputType = "console"
	// OutputFile outputs logs to a rotated file
	OutputFile OutputType = "file"
)

// Config holds the logger configuration
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string

	// Output defines where logs should be written (console, file)
	Output OutputType

	// Format defines the log format (json, console)
	Format string

	// FilePath is the path to the log file (required when Output is "file")
	FilePath string

	// FileMaxSizeMB is the maximum size of the log file in megabytes before rotation
	FileMaxSizeMB int

	// FileMaxBackups is the maximum number of old log files to retain
	FileMaxBackups int

	// FileMaxAgeDays is the maximum number of days to retain old log files
	FileMaxAgeDays int

	// FileCompress determines if rotated log files should be compressed
	FileCompress bool

	// Development enables development mode (more verbose, stacktraces, etc.)
	Development bool

	// AddCaller adds caller information to log entries
	AddCaller bool

	// CallerSkip is the number of stack frames to skip when recording caller info.
	// Callers use the embedded zap methods directly, so 0 reports the call site.
	CallerSkip int
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:          "info",
		Output:         OutputConsole,
		Format:         "console",
		FilePath:       "./logs/repolens.log",
		FileMaxSizeMB:  100,
		FileMaxBackups: 3,
		FileMaxAgeDays: 28,
		FileCompress:   true,
		Development:    false,
		AddCaller:      true,
		CallerSkip:     0,
	}
}

// Logger wraps zap.Logger with additional functionality
type Logger struct {
	*zap.Logger
	config  *Config
	closers []io.Closer
	mu      sync.Mutex
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// New creates a new Logger instance based on the provided configuration
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := createEncoderConfig(cfg.Development)

	var (
		core    zapcore.Core
		closers []io.Closer
	)

	switch cfg.Output {
	case OutputFile:
		var rotator *lumberjack.Logger
		core, rotator, err = createFileCore(cfg, level, encoderConfig)
		if err != nil {
			return nil, err
		}
		closers = append(closers, rotator)
	default:
		core = createConsoleCore(cfg, level, encoderConfig)
	}

	return NewWithCore(cfg, core, closers...), nil
}

// NewWithCore creates a Logger over a custom core, such as one that also
// exports to OpenTelemetry. closers are closed by Close.
func NewWithCore(cfg *Config, core zapcore.Core, closers ...io.Closer) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Logger{
		Logger:  zap.New(core, buildZapOptions(cfg)...),
		config:  cfg,
		closers: closers,
	}
}

// NewNop returns a logger that discards everything, for tests
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

// Init initializes the global logger with the provided configuration
func Init(cfg *Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}

	SetGlobal(logger)
	return nil
}

// SetGlobal sets the global logger instance
func SetGlobal(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Get returns the global logger instance
func Get() *Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		logger, _ := New(DefaultConfig())
		globalLogger = logger
	}

	return globalLogger
}

// WithContext returns a logger with trace information from the context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return l
	}

	return l.WithFields(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)
}

// WithCore returns a logger whose core is wrap applied to the current one,
// sharing this logger's closers
func (l *Logger) WithCore(wrap func(zapcore.Core) zapcore.Core) *Logger {
	return &Logger{
		Logger:  l.WithOptions(zap.WrapCore(wrap)),
		config:  l.config,
		closers: l.closers,
	}
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields ...zap.Field) *Logger {
	return &Logger{
		Logger:  l.With(fields...),
		config:  l.config,
		closers: l.closers,
	}
}

// Close flushes buffered entries and closes file outputs
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.Logger.Sync()

	var lastErr error
	for _, closer := range l.closers {
		if err := closer.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

func createEncoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		config := zap.NewDevelopmentEncoderConfig()
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncodeTime = zapcore.ISO8601TimeEncoder
		return config
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.TimeKey = "timestamp"
	config.MessageKey = "message"
	config.LevelKey = "level"
	config.CallerKey = "caller"
	config.StacktraceKey = "stacktrace"
	return config
}

func newEncoder(cfg *Config, encoderConfig zapcore.EncoderConfig) zapcore.Encoder {
	if cfg.Format == "console" || cfg.Development {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func createConsoleCore(cfg *Config, level zapcore.Level, encoderConfig zapcore.EncoderConfig) zapcore.Core {
	return zapcore.NewCore(
		newEncoder(cfg, encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)
}

func createFileCore(cfg *Config, level zapcore.Level, encoderConfig zapcore.EncoderConfig) (zapcore.Core, *lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.FileMaxSizeMB,
		MaxBackups: cfg.FileMaxBackups,
		MaxAge:     cfg.FileMaxAgeDays,
		Compress:   cfg.FileCompress,
	}

	return zapcore.NewCore(
		newEncoder(cfg, encoderConfig),
		zapcore.AddSync(rotator),
		level,
	), rotator, nil
}

func buildZapOptions(cfg *Config) []zap.Option {
	var opts []zap.Option

	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
		if cfg.CallerSkip > 0 {
			opts = append(opts, zap.AddCallerSkip(cfg.CallerSkip))
		}
	}

	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return opts
}

// Global helper functions

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...zap.Field) {
	Get().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

// Close closes the global logger
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}
