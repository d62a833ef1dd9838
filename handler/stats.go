package handler

import (
	"context"
	"net/http"
	"time"

	"linksnap/analytics"
	"linksnap/middleware"

	"github.com/rs/zerolog/log"
)

// GetStats handles GET /api/urls/stats
// @Summary Dashboard statistics
// @Description Aggregates the caller's links into totals, today/yesterday click counts, a 7-day series, and the top link. Recomputed from the store on every call.
// @Tags URLs
// @Produce json
// @Success 200 {object} model.DashboardStats
// @Router /api/urls/stats [get]
func (h *LinkHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	ownerID := middleware.GetUserID(r)
	if ownerID == "" {
		ownerID = r.URL.Query().Get("userId")
	}

	links, err := h.store.List(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch links for stats")
		sendStoreError(w, err, "Failed to compute statistics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, analytics.Summarize(links, time.Now()))
}
