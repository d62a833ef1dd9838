package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"linksnap/middleware"
	"linksnap/model"
	"linksnap/shortcode"
	"linksnap/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// CreateLink handles POST /api/urls
// @Summary Create a short link
// @Description Persists a new link record. Generates the short code server-side when the client sends none; a supplied code that is already taken is rejected with 409.
// @Tags URLs
// @Accept json
// @Produce json
// @Success 201 {object} model.Link
// @Failure 400 {object} ErrorResponse "originalUrl missing"
// @Failure 409 {object} ErrorResponse "short code already exists"
// @Router /api/urls [post]
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	var input model.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode create request")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if input.OriginalURL == "" {
		SendJSONError(w, http.StatusBadRequest, store.ErrValidation, "originalUrl is required")
		return
	}

	// A session names the owner; an anonymous request may still pass one.
	ownerID := input.OwnerID
	if userID := middleware.GetUserID(r); userID != "" {
		ownerID = userID
	}

	code := input.ShortCode
	if code == "" {
		var err error
		code, err = shortcode.Generate()
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate short code")
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate short code")
			return
		}
	}

	shortURL := input.ShortURL
	if shortURL == "" {
		shortURL = fmt.Sprintf("%s/%s", h.baseURL, code)
	}

	link, err := h.store.Create(ctx, input.OriginalURL, ownerID, code, shortURL)
	if err != nil {
		log.Warn().Err(err).Str("short_code", code).Msg("Create failed")
		sendStoreError(w, err, "")
		return
	}

	log.Info().
		Str("id", link.ID).
		Str("short_code", link.ShortCode).
		Str("original_url", link.OriginalURL).
		Str("owner_id", link.OwnerID).
		Msg("Short link created")

	SendJSONSuccess(w, http.StatusCreated, link)
}

// ListLinks handles GET /api/urls
// @Summary List link records
// @Description Returns all links newest-first. Authenticated requests see their own links; anonymous requests may filter with ?userId=.
// @Tags URLs
// @Produce json
// @Success 200 {array} model.Link
// @Router /api/urls [get]
func (h *LinkHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	ownerID := middleware.GetUserID(r)
	if ownerID == "" {
		ownerID = r.URL.Query().Get("userId")
	}

	links, err := h.store.List(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list links")
		sendStoreError(w, err, "Failed to list links")
		return
	}

	SendJSONSuccess(w, http.StatusOK, links)
}

// UpdateLink handles PUT /api/urls/{id} - replaces the destination URL.
func (h *LinkHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	id := mux.Vars(r)["id"]

	var input model.UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.OriginalURL == "" {
		SendJSONError(w, http.StatusBadRequest, store.ErrValidation, "originalUrl is required")
		return
	}

	link, err := h.store.Update(ctx, id, input.OriginalURL)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Update failed")
		sendStoreError(w, err, "")
		return
	}

	// The cached record still points at the old destination.
	h.cache.Delete(link.ShortCode)

	log.Info().
		Str("id", link.ID).
		Str("short_code", link.ShortCode).
		Str("new_url", link.OriginalURL).
		Msg("Link updated")

	SendJSONSuccess(w, http.StatusOK, link)
}

// DeleteLink handles DELETE /api/urls/{id}. Deletion is idempotent: an
// absent id is indistinguishable from a successful delete.
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	id := mux.Vars(r)["id"]

	link, err := h.store.Delete(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Delete failed")
		sendStoreError(w, err, "Failed to delete link")
		return
	}

	if link != nil {
		h.cache.Delete(link.ShortCode)
		log.Info().Str("id", id).Str("short_code", link.ShortCode).Msg("Link deleted")
	}

	w.WriteHeader(http.StatusNoContent)
}

// IncrementClick handles POST /api/urls/click/{shortCode}. The click
// endpoint and the redirect route share one store write path, so the
// counter and the history stay in lock-step.
func (h *LinkHandler) IncrementClick(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	code := mux.Vars(r)["shortCode"]

	link, err := h.store.IncrementClick(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("short_code", code).Msg("Click increment failed")
		sendStoreError(w, err, "")
		return
	}

	// Keep the cached copy's counters fresh.
	if h.config.Cache.Enabled {
		h.cache.Set(code, *link)
	}

	SendJSONSuccess(w, http.StatusOK, model.ClickResponse{Clicks: link.Clicks})
}
