// internal/pkg/logger/elk.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// ELKConfig holds configuration for ELK stack integration
type ELKConfig struct {
	ElasticsearchURL string        `json:"elasticsearch_url"`
	IndexPattern     string        `json:"index_pattern"`
	BatchSize        int           `json:"batch_size"`
	FlushInterval    time.Duration `json:"flush_interval"`
	Username         string        `json:"username"`
	Password         string        `json:"password"`
	EnableBatching   bool          `json:"enable_batching"`
}

// LogEntry represents a log entry for Elasticsearch
type LogEntry struct {
	Timestamp   time.Time              `json:"@timestamp"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	RequestID   string                 `json:"request_id,omitempty"`
	CartSession string                 `json:"cart_session,omitempty"`
	SaleID      int64                  `json:"sale_id,omitempty"`
	TaskID      string                 `json:"task_id,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	StatusCode  int                    `json:"status_code,omitempty"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
	Error       *ErrorInfo             `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ELKHandler ships records to the Elasticsearch bulk API. Handlers derived
// through WithAttrs and WithGroup share one buffer and one flusher.
type ELKHandler struct {
	ship   *elkShipper
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

type elkShipper struct {
	client *http.Client
	config ELKConfig
	mu     sync.Mutex
	buffer []LogEntry
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewELKHandler creates a new ELK handler
func NewELKHandler(cfg ELKConfig, level slog.Leveler) *ELKHandler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if level == nil {
		level = slog.LevelInfo
	}

	s := &elkShipper{
		client: &http.Client{Timeout: 10 * time.Second},
		config: cfg,
		buffer: make([]LogEntry, 0, cfg.BatchSize),
		done:   make(chan struct{}),
	}
	if cfg.EnableBatching {
		s.wg.Add(1)
		go s.run()
	}

	return &ELKHandler{ship: s, level: level}
}

func (h *ELKHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ELKHandler) Handle(_ context.Context, record slog.Record) error {
	entry := LogEntry{
		Timestamp: record.Time.UTC(),
		Level:     record.Level.String(),
		Message:   record.Message,
		Fields:    make(map[string]interface{}),
	}
	for _, a := range h.attrs {
		h.apply(&entry, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		h.apply(&entry, a)
		return true
	})

	if !h.ship.config.EnableBatching {
		h.ship.send([]LogEntry{entry})
		return nil
	}

	h.ship.mu.Lock()
	h.ship.buffer = append(h.ship.buffer, entry)
	full := len(h.ship.buffer) >= h.ship.config.BatchSize
	h.ship.mu.Unlock()

	if full {
		h.ship.flush()
	}
	return nil
}

func (h *ELKHandler) apply(entry *LogEntry, a slog.Attr) {
	v := a.Value.Resolve()
	switch a.Key {
	case string(ContextKeyRequestID):
		entry.RequestID = v.String()
	case string(ContextKeyCartSession):
		entry.CartSession = v.String()
	case string(ContextKeyTaskID):
		entry.TaskID = v.String()
	case string(ContextKeyMethod):
		entry.Method = v.String()
	case string(ContextKeyPath):
		entry.Path = v.String()
	case string(ContextKeySaleID):
		if v.Kind() == slog.KindInt64 {
			entry.SaleID = v.Int64()
		}
	case string(ContextKeyStatusCode):
		if v.Kind() == slog.KindInt64 {
			entry.StatusCode = int(v.Int64())
		}
	case "error":
		msg := v.String()
		typ := "string"
		if err, ok := v.Any().(error); ok {
			msg = err.Error()
			typ = fmt.Sprintf("%T", err)
		}
		entry.Error = &ErrorInfo{Type: typ, Message: msg}
	default:
		entry.Fields[h.prefix+a.Key] = v.Any()
	}
}

func (h *ELKHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &ELKHandler{ship: h.ship, level: h.level, attrs: merged, prefix: h.prefix}
}

func (h *ELKHandler) WithGroup(name string) slog.Handler {
	return &ELKHandler{ship: h.ship, level: h.level, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// Close stops the flusher and ships what is left in the buffer.
func (h *ELKHandler) Close() {
	h.ship.once.Do(func() {
		close(h.ship.done)
		h.ship.wg.Wait()
		h.ship.flush()
	})
}

func (s *elkShipper) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.done:
			return
		}
	}
}

func (s *elkShipper) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	entries := make([]LogEntry, len(s.buffer))
	copy(entries, s.buffer)
	s.buffer = s.buffer[:0]
	s.mu.Unlock()

	s.send(entries)
}

func (s *elkShipper) send(entries []LogEntry) {
	if len(entries) == 0 {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range entries {
		meta := map[string]interface{}{
			"index": map[string]string{
				"_index": fmt.Sprintf("%s-%s", s.config.IndexPattern, entry.Timestamp.Format("2006.01.02")),
			},
		}
		if err := enc.Encode(meta); err != nil {
			continue
		}
		if err := enc.Encode(entry); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode log entry: %v\n", err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, s.config.ElasticsearchURL+"/_bulk", &buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build elasticsearch request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if s.config.Username != "" && s.config.Password != "" {
		req.SetBasicAuth(s.config.Username, s.config.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to send logs to elasticsearch: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "elasticsearch returned status %d\n", resp.StatusCode)
	}
}
