package handler

import (
	"net/http"
	"runtime"
	"time"

	"stockpilot-api/internal/repository"
	"stockpilot-api/internal/service"
	"stockpilot-api/pkg/apierror"
	"stockpilot-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	repo      repository.BusinessRepository
	scheduler *service.InsightScheduler
	dbType    string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	repo repository.BusinessRepository,
	scheduler *service.InsightScheduler,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		repo:      repo,
		scheduler: scheduler,
		dbType:    dbType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	// Business store stats
	if h.repo != nil {
		dbStats, err := h.repo.GetStats(ctx)
		if err == nil {
			dbStats["status"] = "connected"
			stats["database"] = dbStats
		} else {
			stats["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["database"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// RunInsights handles POST /api/v1/admin/insights/run - triggers an
// immediate insight generation pass across all active users.
func (h *AdminHandler) RunInsights(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		response.Error(w, apierror.ServiceUnavailable("insight scheduler is not running"))
		return
	}

	generated, err := h.scheduler.RunNow()
	if err != nil {
		response.Error(w, apierror.InternalError("insight generation failed"))
		return
	}

	response.OK(w, map[string]interface{}{
		"generated": generated,
	})
}
