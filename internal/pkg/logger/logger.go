// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	ContextKeyRequestID   ContextKey = "request_id"
	ContextKeyCartSession ContextKey = "cart_session"
	ContextKeySaleID      ContextKey = "sale_id"
	ContextKeyTaskID      ContextKey = "task_id"
	ContextKeyClientIP    ContextKey = "client_ip"
	ContextKeyMethod      ContextKey = "method"
	ContextKeyPath        ContextKey = "path"
	ContextKeyStatusCode  ContextKey = "status_code"
	ContextKeyDuration    ContextKey = "duration_ms"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string
	Format         string
	Writer         io.Writer
	AddSource      bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	// ELK, when ElasticsearchURL is set, ships every record to Elasticsearch as well.
	ELK ELKConfig
}

// Logger wraps slog.Logger with the handler chain used across the binaries.
type Logger struct {
	*slog.Logger
	config *LogConfig
	elk    *ELKHandler
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(level string, format string) *Logger {
	return Setup(&LogConfig{
		Level:          level,
		Format:         format,
		AddSource:      level == "debug",
		ServiceName:    os.Getenv("SERVICE_NAME"),
		ServiceVersion: os.Getenv("APP_VERSION"),
		Environment:    os.Getenv("APP_ENV"),
		ELK: ELKConfig{
			ElasticsearchURL: os.Getenv("LOG_ELASTICSEARCH_URL"),
			IndexPattern:     "pos-engine",
			BatchSize:        100,
			FlushInterval:    5 * time.Second,
			EnableBatching:   true,
		},
	})
}

// Setup builds a logger from config and installs it as the slog default.
func Setup(config *LogConfig) *Logger {
	l := NewLogger(config)
	slog.SetDefault(l.Logger)
	return l
}

// NewLogger creates a logger without touching the slog default.
func NewLogger(config *LogConfig) *Logger {
	if config == nil {
		config = &LogConfig{Level: "info", Format: "json"}
	}
	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return replaceAttr(config, groups, a)
		},
	}

	var handler slog.Handler
	switch config.Format {
	case "text":
		handler = NewPrettyTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	var elk *ELKHandler
	if config.ELK.ElasticsearchURL != "" {
		elk = NewELKHandler(config.ELK, opts.Level)
		handler = NewMultiHandler(handler, elk)
	}

	handler = NewContextHandler(handler)
	handler = NewSanitizationHandler(handler)

	attrs := []slog.Attr{}
	if config.ServiceName != "" {
		attrs = append(attrs, slog.String("service", config.ServiceName))
	}
	if config.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", config.ServiceVersion))
	}
	if config.Environment != "" {
		attrs = append(attrs, slog.String("env", config.Environment))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: config,
		elk:    elk,
	}
}

// Close flushes buffered log shipping, if any.
func (l *Logger) Close() {
	if l.elk != nil {
		l.elk.Close()
	}
}

// WithRequestID stores the request id for log enrichment.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// WithCartSession stores the cart session id for log enrichment.
func WithCartSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ContextKeyCartSession, sessionID)
}

// WithSaleID stores the sale id for log enrichment.
func WithSaleID(ctx context.Context, saleID int64) context.Context {
	return context.WithValue(ctx, ContextKeySaleID, saleID)
}

// WithTaskID stores the background task id for log enrichment.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, ContextKeyTaskID, taskID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func contextKeys() []ContextKey {
	return []ContextKey{
		ContextKeyRequestID,
		ContextKeyCartSession,
		ContextKeySaleID,
		ContextKeyTaskID,
		ContextKeyClientIP,
		ContextKeyMethod,
		ContextKeyPath,
		ContextKeyStatusCode,
		ContextKeyDuration,
	}
}

func extractContextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range contextKeys() {
		val := ctx.Value(key)
		if val == nil {
			continue
		}
		k := string(key)
		switch v := val.(type) {
		case string:
			if v != "" {
				attrs = append(attrs, slog.String(k, v))
			}
		case int:
			attrs = append(attrs, slog.Int(k, v))
		case int64:
			attrs = append(attrs, slog.Int64(k, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(k, v))
		case uuid.UUID:
			attrs = append(attrs, slog.String(k, v.String()))
		default:
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	return attrs
}

func replaceAttr(config *LogConfig, _ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	}

	// log aggregators expect "severity"
	if a.Key == slog.LevelKey && config.Format != "text" {
		a.Key = "severity"
	}

	if strings.HasSuffix(a.Key, "_ms") {
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Milliseconds()))
		}
	}

	return a
}
