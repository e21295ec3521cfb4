// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/pos-engine/internal/core/ports"
	"github.com/ammerola/pos-engine/internal/pkg/config"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// QueueInspector is the subset of *asynq.Inspector the health check reads.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
}

// HealthHandler reports on the stores and queues a till depends on. A nil
// dependency is not probed.
type HealthHandler struct {
	db        ports.Database
	redis     *redis.Client
	asynq     QueueInspector
	catalog   ports.InventoryService
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(
	database ports.Database,
	redisClient *redis.Client,
	asynqInspector QueueInspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisClient,
		asynq:     asynqInspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// WithCatalog adds a catalog probe reporting product and low-stock counts.
func (h *HealthHandler) WithCatalog(inventory ports.InventoryService) *HealthHandler {
	h.catalog = inventory
	return h
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	Runtime     RuntimeInfo            `json:"runtime"`
}

// ServiceInfo is the outcome of one probe.
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

type RuntimeInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type probe func(ctx context.Context, details map[string]interface{}) error

// Health handles GET /health. Any failing probe marks the engine degraded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      statusHealthy,
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
		Runtime:     runtimeInfo(),
	}

	for name, p := range h.probes() {
		info := h.run(ctx, name, p)
		health.Services[name] = info
		if info.Status != statusHealthy {
			health.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status != statusHealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.write(ctx, w, statusCode, health)
}

// Readiness handles GET /ready. Only the stores a sale needs are checked.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)
	mark := func(name string, err error) {
		if err != nil {
			ready = false
			details[name] = "not ready"
			return
		}
		details[name] = "ready"
	}

	if h.db != nil {
		mark("database", h.db.Ping(ctx))
	}
	if h.redis != nil {
		mark("redis", h.redis.Ping(ctx).Err())
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	h.write(ctx, w, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) probes() map[string]probe {
	probes := make(map[string]probe)
	if h.db != nil {
		probes["database"] = h.probeDatabase
	}
	if h.redis != nil {
		probes["redis"] = h.probeRedis
	}
	if h.asynq != nil {
		probes["asynq"] = h.probeQueues
	}
	if h.catalog != nil {
		probes["catalog"] = h.probeCatalog
	}
	return probes
}

func (h *HealthHandler) run(ctx context.Context, name string, p probe) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: statusHealthy, Details: make(map[string]interface{})}

	if err := p(ctx, info.Details); err != nil {
		h.logger.ErrorContext(ctx, "health probe failed",
			slog.String("probe", name),
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

func (h *HealthHandler) probeDatabase(ctx context.Context, details map[string]interface{}) error {
	if err := h.db.Ping(ctx); err != nil {
		return err
	}
	for k, v := range h.db.Health(ctx) {
		details[k] = v
	}
	return nil
}

func (h *HealthHandler) probeRedis(ctx context.Context, details map[string]interface{}) error {
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return err
	}
	stats := h.redis.PoolStats()
	details["total_conns"] = stats.TotalConns
	details["idle_conns"] = stats.IdleConns
	return nil
}

// probeQueues reports backlog per queue; a long print queue usually means
// the receipt printer is offline.
func (h *HealthHandler) probeQueues(_ context.Context, details map[string]interface{}) error {
	queues, err := h.asynq.Queues()
	if err != nil {
		return err
	}
	sort.Strings(queues)

	backlog := make(map[string]interface{}, len(queues))
	for _, queue := range queues {
		qInfo, err := h.asynq.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		backlog[queue] = map[string]int{
			"pending":  qInfo.Pending,
			"active":   qInfo.Active,
			"retry":    qInfo.Retry,
			"archived": qInfo.Archived,
		}
	}
	details["queues"] = backlog

	if servers, err := h.asynq.Servers(); err == nil {
		details["workers"] = len(servers)
	}
	return nil
}

func (h *HealthHandler) probeCatalog(ctx context.Context, details map[string]interface{}) error {
	products, err := h.catalog.List(ctx)
	if err != nil {
		return err
	}
	low, err := h.catalog.LowStock(ctx)
	if err != nil {
		return err
	}
	details["products"] = len(products)
	details["low_stock"] = len(low)
	return nil
}

func (h *HealthHandler) write(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

func runtimeInfo() RuntimeInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: mem.Alloc / 1024 / 1024,
		NumGC:         mem.NumGC,
	}
}
