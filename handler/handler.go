package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"linksnap/cache"
	"linksnap/config"
	"linksnap/store"

	"golang.org/x/sync/singleflight"
)

// LinkHandler exposes the link store over HTTP.
type LinkHandler struct {
	store   *store.Store
	cache   *cache.Cache
	config  config.Config
	baseURL string

	// Collapses concurrent store lookups for the same short code on
	// cache misses.
	lookups singleflight.Group
}

// NewLinkHandler creates a new link handler. cacheClient may be nil when
// caching is disabled.
func NewLinkHandler(st *store.Store, cacheClient *cache.Cache, cfg config.Config) *LinkHandler {
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	return &LinkHandler{
		store:   st,
		cache:   cacheClient,
		config:  cfg,
		baseURL: baseURL,
	}
}

func (h *LinkHandler) opTimeout() time.Duration {
	return time.Duration(h.config.Redis.OperationTimeout) * time.Second
}

// HealthCheck handles GET /health
func (h *LinkHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		SendJSONError(w, http.StatusServiceUnavailable, err, "Store unavailable")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"store":  "connected",
	})
}

// CacheMetrics handles GET /cache/metrics
func (h *LinkHandler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.config.Cache.Enabled || h.cache == nil {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("cache is disabled"), "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.cache.GetMetricsSnapshot())
}
