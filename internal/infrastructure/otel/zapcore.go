package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// LogCore is a zapcore.Core that emits every entry as an OTEL log record
type LogCore struct {
	zapcore.LevelEnabler
	logger log.Logger
	fields []zapcore.Field
}

// NewLogCore creates a core that exports entries at or above level
func NewLogCore(provider *Provider, level zapcore.LevelEnabler) *LogCore {
	return &LogCore{
		LevelEnabler: level,
		logger:       provider.Logger(),
	}
}

// NewCombinedCore tees local into a LogCore that shares its level
func NewCombinedCore(local zapcore.Core, provider *Provider) zapcore.Core {
	return zapcore.NewTee(local, NewLogCore(provider, local))
}

// With implements zapcore.Core
func (c *LogCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &LogCore{LevelEnabler: c.LevelEnabler, logger: c.logger, fields: merged}
}

// Check implements zapcore.Core
func (c *LogCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write implements zapcore.Core
func (c *LogCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var record log.Record
	record.SetTimestamp(entry.Time)
	record.SetObservedTimestamp(time.Now())
	record.SetSeverity(severity(entry.Level))
	record.SetSeverityText(entry.Level.String())
	record.SetBody(log.StringValue(entry.Message))

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	attrs := make([]log.KeyValue, 0, len(enc.Fields)+2)
	if entry.Caller.Defined {
		attrs = append(attrs, log.String("caller", entry.Caller.TrimmedPath()))
	}
	if entry.LoggerName != "" {
		attrs = append(attrs, log.String("logger", entry.LoggerName))
	}
	for k, v := range enc.Fields {
		attrs = append(attrs, log.KeyValue{Key: k, Value: logValue(v)})
	}
	record.AddAttributes(attrs...)

	c.logger.Emit(context.Background(), record)
	return nil
}

// Sync implements zapcore.Core; the provider flushes on shutdown
func (c *LogCore) Sync() error {
	return nil
}

// logValue converts a value produced by zapcore.MapObjectEncoder
func logValue(v any) log.Value {
	switch val := v.(type) {
	case nil:
		return log.Value{}
	case string:
		return log.StringValue(val)
	case bool:
		return log.BoolValue(val)
	case int:
		return log.IntValue(val)
	case int8:
		return log.Int64Value(int64(val))
	case int16:
		return log.Int64Value(int64(val))
	case int32:
		return log.Int64Value(int64(val))
	case int64:
		return log.Int64Value(val)
	case uint8:
		return log.Int64Value(int64(val))
	case uint16:
		return log.Int64Value(int64(val))
	case uint32:
		return log.Int64Value(int64(val))
	case uint64:
		return log.StringValue(fmt.Sprint(val))
	case float32:
		return log.Float64Value(float64(val))
	case float64:
		return log.Float64Value(val)
	case []byte:
		return log.BytesValue(val)
	case time.Time:
		return log.StringValue(val.Format(time.RFC3339Nano))
	case time.Duration:
		return log.StringValue(val.String())
	case []any:
		out := make([]log.Value, len(val))
		for i, item := range val {
			out[i] = logValue(item)
		}
		return log.SliceValue(out...)
	case map[string]any:
		out := make([]log.KeyValue, 0, len(val))
		for k, item := range val {
			out = append(out, log.KeyValue{Key: k, Value: logValue(item)})
		}
		return log.MapValue(out...)
	default:
		return log.StringValue(fmt.Sprint(val))
	}
}

func severity(level zapcore.Level) log.Severity {
	switch level {
	case zapcore.DebugLevel:
		return log.SeverityDebug
	case zapcore.InfoLevel:
		return log.SeverityInfo
	case zapcore.WarnLevel:
		return log.SeverityWarn
	case zapcore.ErrorLevel:
		return log.SeverityError
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return log.SeverityFatal1
	case zapcore.FatalLevel:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}
