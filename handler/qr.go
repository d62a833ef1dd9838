package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

// GenerateQR handles GET /api/urls/qr/{shortCode} - returns a QR code PNG
// pointing at the short URL.
func (h *LinkHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	code := mux.Vars(r)["shortCode"]

	link, err := h.resolveLink(ctx, code)
	if err != nil {
		sendStoreError(w, err, "")
		return
	}

	target := link.ShortURL
	if target == "" {
		target = fmt.Sprintf("%s/%s", h.baseURL, link.ShortCode)
	}

	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		log.Error().Err(err).Str("short_code", code).Msg("Failed to generate QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(png)
}
