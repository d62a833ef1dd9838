package handler

import (
	"context"
	"net/http"

	"linksnap/model"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// resolveLink resolves a short code via cache, then store. Concurrent
// misses for the same code share one store lookup.
func (h *LinkHandler) resolveLink(ctx context.Context, code string) (*model.Link, error) {
	if h.config.Cache.Enabled {
		if link, found := h.cache.Get(code); found {
			log.Debug().Str("short_code", code).Msg("Cache hit")
			return &link, nil
		}
	}

	value, err, _ := h.lookups.Do(code, func() (interface{}, error) {
		return h.store.Lookup(ctx, code)
	})
	if err != nil {
		return nil, err
	}

	link := value.(*model.Link)
	if h.config.Cache.Enabled {
		h.cache.Set(code, *link)
	}
	return link, nil
}

// Redirect handles GET /api/r/{shortCode} and the root GET /{shortCode}
// route. It resolves the code, records the click, and forwards the client
// with a 301. Lookup and click accounting are two separate store
// operations: a failed increment is logged, not surfaced, and the visitor
// is still redirected.
func (h *LinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	code := mux.Vars(r)["shortCode"]

	link, err := h.resolveLink(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("short_code", code).Msg("Redirect lookup failed")
		sendStoreError(w, err, "")
		return
	}

	updated, err := h.store.IncrementClick(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("short_code", code).Msg("Failed to record click")
	} else if h.config.Cache.Enabled {
		h.cache.Set(code, *updated)
	}

	log.Info().
		Str("short_code", code).
		Str("original_url", link.OriginalURL).
		Str("remote_addr", r.RemoteAddr).
		Msg("Redirecting")

	http.Redirect(w, r, link.OriginalURL, http.StatusMovedPermanently)
}
