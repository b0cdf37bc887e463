package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"steamprofile-rest-api/pkg/response"

	"go.uber.org/zap"
)

// PartitionLister enumerates stored identities.
type PartitionLister interface {
	List(ctx context.Context) ([]string, error)
}

// AliasCounter reports the alias index size.
type AliasCounter interface {
	Count(ctx context.Context) (int64, error)
}

// CallCounter reports upstream calls issued by the gateway.
type CallCounter interface {
	Calls() int64
}

// IndexSyncer triggers an immediate alias index rebuild.
type IndexSyncer interface {
	RunNow() (int, error)
}

// AdminConfig holds the dependencies of AdminHandler.
type AdminConfig struct {
	Store     PartitionLister
	Index     AliasCounter
	Gateway   CallCounter
	Sync      IndexSyncer
	CacheType string
	IndexType string
	Logger    *zap.Logger
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	cfg       AdminConfig
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cfg.Logger = cfg.Logger.Named("admin")
	return &AdminHandler{
		cfg:       cfg,
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
	stats["cache_type"] = h.cfg.CacheType
	stats["index_type"] = h.cfg.IndexType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.cfg.Store != nil {
		ids, err := h.cfg.Store.List(ctx)
		if err == nil {
			stats["store"] = map[string]interface{}{
				"partitions": len(ids),
				"status":     "ok",
			}
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	if h.cfg.Index != nil {
		n, err := h.cfg.Index.Count(ctx)
		if err == nil {
			stats["alias_index"] = map[string]interface{}{
				"identities": n,
				"status":     "connected",
			}
		} else {
			stats["alias_index"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["alias_index"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	if h.cfg.Gateway != nil {
		stats["gateway"] = map[string]interface{}{
			"calls": h.cfg.Gateway.Calls(),
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

// Reindex handles POST /api/v1/admin/reindex
func (h *AdminHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Sync == nil {
		response.OK(w, map[string]interface{}{"status": "not_configured"})
		return
	}

	n, err := h.cfg.Sync.RunNow()
	if err != nil {
		h.cfg.Logger.Error("Manual reindex failed", zap.Error(err))
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"status":  "reindexed",
		"indexed": n,
	})
}

// GetHealth handles GET /api/v1/admin/health
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
