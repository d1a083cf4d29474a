package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// DatabaseStatus is the view of the listings database that health needs.
type DatabaseStatus interface {
	Ping(ctx context.Context) error
	TableStats(ctx context.Context) (*model.TableStats, error)
}

// GeneratorStatus is the view of the generation backend that health needs.
type GeneratorStatus interface {
	Name() string
	Health(ctx context.Context) error
	Slots() int64
	InUse() int64
}

// HealthHandler reports dependency health.
type HealthHandler struct {
	db        DatabaseStatus
	generator GeneratorStatus
	version   string
	timeout   time.Duration
}

func NewHealthHandler(db DatabaseStatus, generator GeneratorStatus, version string) *HealthHandler {
	return &HealthHandler{db: db, generator: generator, version: version, timeout: 3 * time.Second}
}

// Check handles GET /api/health. A database outage makes the service
// unhealthy (503); a generator outage only degrades it.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := model.HealthResponse{
		Status:    statusHealthy,
		Version:   h.version,
		Database:  h.database(ctx),
		Generator: h.generatorHealth(ctx),
		Accelerator: model.AcceleratorHealth{
			Status: "available",
			Slots:  h.generator.Slots(),
			InUse:  h.generator.InUse(),
		},
	}
	if resp.Accelerator.InUse >= resp.Accelerator.Slots {
		resp.Accelerator.Status = "busy"
	}

	status := http.StatusOK
	switch {
	case !resp.Database.Connected:
		resp.Status = statusUnhealthy
		status = http.StatusServiceUnavailable
	case !resp.Generator.Connected:
		resp.Status = statusDegraded
	}
	c.JSON(status, resp)
}

// Database handles GET /api/health/database.
func (h *HealthHandler) Database(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	component(c, h.database(ctx))
}

// Generator handles GET /api/health/llm.
func (h *HealthHandler) Generator(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	component(c, h.generatorHealth(ctx))
}

func component(c *gin.Context, health model.ComponentHealth) {
	status := http.StatusOK
	if !health.Connected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// database pings first; table stats are only gathered over a live connection
// and a failed count leaves the component connected.
func (h *HealthHandler) database(ctx context.Context) model.ComponentHealth {
	health := probe(ctx, h.db.Ping)
	if !health.Connected {
		return health
	}
	stats, err := h.db.TableStats(ctx)
	if err != nil {
		health.Status = statusDegraded
		health.Error = err.Error()
		return health
	}
	health.Details = map[string]any{"table": stats.Table, "row_count": stats.RowCount}
	return health
}

func (h *HealthHandler) generatorHealth(ctx context.Context) model.ComponentHealth {
	health := probe(ctx, h.generator.Health)
	health.Details = map[string]any{
		"backend": h.generator.Name(),
		"slots":   h.generator.Slots(),
		"in_use":  h.generator.InUse(),
	}
	return health
}

func probe(ctx context.Context, check func(context.Context) error) model.ComponentHealth {
	start := time.Now()
	err := check(ctx)
	h := model.ComponentHealth{
		Status:    statusHealthy,
		Connected: err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		h.Status = statusUnhealthy
		h.Error = err.Error()
	}
	return h
}
