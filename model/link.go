package model

import "time"

// Link is the persisted short-link record. JSON field names follow the
// public API contract, so the same struct serves storage and responses.
type Link struct {
	ID           string      `json:"id"`
	OriginalURL  string      `json:"originalUrl"`
	ShortCode    string      `json:"shortCode"`
	ShortURL     string      `json:"shortUrl,omitempty"`
	OwnerID      string      `json:"userId,omitempty"`
	Clicks       int         `json:"clicks"`
	ClickHistory []time.Time `json:"clickHistory"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// CreateLinkRequest is the POST /api/urls body. ShortCode and ShortURL are
// optional: the server generates a code and derives the short URL from the
// configured base URL when they are omitted.
type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
	OwnerID     string `json:"userId"`
	ShortCode   string `json:"shortCode"`
	ShortURL    string `json:"shortUrl"`
}

// UpdateLinkRequest is the PUT /api/urls/{id} body.
type UpdateLinkRequest struct {
	OriginalURL string `json:"originalUrl"`
}

// ClickResponse echoes the click counter after an increment.
type ClickResponse struct {
	Clicks int `json:"clicks"`
}
