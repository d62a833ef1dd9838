package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"linksnap/config"
	"linksnap/model"
	"linksnap/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

func newTestRouter(t *testing.T) (*mux.Router, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := config.Config{
		WebServer: config.WebServerConfig{Scheme: "http", IP: "localhost", Port: "8080"},
		Redis:     config.RedisConfig{OperationTimeout: 5},
	}
	h := NewLinkHandler(store.New(client), nil, cfg)

	r := mux.NewRouter()
	r.HandleFunc("/api/urls", h.CreateLink).Methods("POST")
	r.HandleFunc("/api/urls", h.ListLinks).Methods("GET")
	r.HandleFunc("/api/urls/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/api/urls/click/{shortCode}", h.IncrementClick).Methods("POST")
	r.HandleFunc("/api/urls/qr/{shortCode}", h.GenerateQR).Methods("GET")
	r.HandleFunc("/api/urls/{id}", h.UpdateLink).Methods("PUT")
	r.HandleFunc("/api/urls/{id}", h.DeleteLink).Methods("DELETE")
	r.HandleFunc("/api/r/{shortCode}", h.Redirect).Methods("GET")
	r.HandleFunc("/{shortCode}", h.Redirect).Methods("GET")
	return r, s
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createLink(t *testing.T, router *mux.Router, body model.CreateLinkRequest) model.Link {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/urls", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/urls status = %d, body = %s", w.Code, w.Body.String())
	}
	var link model.Link
	if err := json.Unmarshal(w.Body.Bytes(), &link); err != nil {
		t.Fatalf("Failed to decode create response: %v", err)
	}
	return link
}

func TestCreateLink_EchoesFields(t *testing.T) {
	router, _ := newTestRouter(t)

	link := createLink(t, router, model.CreateLinkRequest{
		OriginalURL: "https://a.com",
		OwnerID:     "u1",
		ShortCode:   "abc123",
		ShortURL:    "http://x/abc123",
	})

	if link.OriginalURL != "https://a.com" {
		t.Errorf("originalUrl = %s, want https://a.com", link.OriginalURL)
	}
	if link.OwnerID != "u1" {
		t.Errorf("userId = %s, want u1", link.OwnerID)
	}
	if link.ShortCode != "abc123" {
		t.Errorf("shortCode = %s, want abc123", link.ShortCode)
	}
	if link.ShortURL != "http://x/abc123" {
		t.Errorf("shortUrl = %s, want http://x/abc123", link.ShortURL)
	}
	if link.Clicks != 0 {
		t.Errorf("clicks = %d, want 0", link.Clicks)
	}
	if link.ID == "" {
		t.Error("id was not assigned")
	}
	if link.CreatedAt.IsZero() {
		t.Error("createdAt was not set")
	}
}

func TestCreateLink_GeneratesCodeWhenOmitted(t *testing.T) {
	router, _ := newTestRouter(t)

	link := createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://a.com"})

	if len(link.ShortCode) < 6 || len(link.ShortCode) > 8 {
		t.Errorf("generated shortCode %q has length %d, want 6-8", link.ShortCode, len(link.ShortCode))
	}
	if link.ShortURL == "" {
		t.Error("shortUrl was not derived from the base URL")
	}
}

func TestCreateLink_MissingOriginalURL(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/urls", model.CreateLinkRequest{ShortCode: "abc123"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateLink_DuplicateCodeConflicts(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://a.com", ShortCode: "dup123"})

	w := doJSON(t, router, http.MethodPost, "/api/urls", model.CreateLinkRequest{
		OriginalURL: "https://b.com",
		ShortCode:   "dup123",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("second create status = %d, want 409", w.Code)
	}
}

func TestClickIncrement_ThreeTimes(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://a.com", ShortCode: "abc123"})

	var resp model.ClickResponse
	for i := 1; i <= 3; i++ {
		w := doJSON(t, router, http.MethodPost, "/api/urls/click/abc123", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("click %d status = %d, want 200", i, w.Code)
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode click response: %v", err)
		}
		if resp.Clicks != i {
			t.Errorf("click %d returned clicks = %d", i, resp.Clicks)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/urls", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/urls status = %d", w.Code)
	}
	var links []model.Link
	if err := json.Unmarshal(w.Body.Bytes(), &links); err != nil {
		t.Fatalf("Failed to decode list response: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("list length = %d, want 1", len(links))
	}
	if links[0].Clicks != 3 {
		t.Errorf("clicks = %d, want 3", links[0].Clicks)
	}
	if len(links[0].ClickHistory) != 3 {
		t.Errorf("clickHistory length = %d, want 3", len(links[0].ClickHistory))
	}
}

func TestClickIncrement_UnknownCode(t *testing.T) {
	router, s := newTestRouter(t)
	keysBefore := len(s.Keys())

	w := doJSON(t, router, http.MethodPost, "/api/urls/click/doesnotexist", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if got := len(s.Keys()); got != keysBefore {
		t.Errorf("store mutated: %d keys, want %d", got, keysBefore)
	}
}

func TestRedirect_Found(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://example.com", ShortCode: "abc123"})

	w := doJSON(t, router, http.MethodGet, "/api/r/abc123", nil)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com" {
		t.Errorf("Location = %s, want https://example.com", loc)
	}

	// The redirect recorded a click.
	w = doJSON(t, router, http.MethodGet, "/api/urls", nil)
	var links []model.Link
	json.Unmarshal(w.Body.Bytes(), &links)
	if len(links) != 1 || links[0].Clicks != 1 {
		t.Errorf("expected one link with one click after redirect, got %+v", links)
	}
}

func TestRedirect_RootRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://example.com", ShortCode: "root12"})

	w := doJSON(t, router, http.MethodGet, "/root12", nil)
	if w.Code != http.StatusMovedPermanently {
		t.Errorf("status = %d, want 301", w.Code)
	}
}

func TestRedirect_NotFound(t *testing.T) {
	router, s := newTestRouter(t)
	keysBefore := len(s.Keys())

	w := doJSON(t, router, http.MethodGet, "/api/r/doesnotexist", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if got := len(s.Keys()); got != keysBefore {
		t.Errorf("store mutated on unknown code: %d keys, want %d", got, keysBefore)
	}
}

func TestRedirect_StoreDown(t *testing.T) {
	router, s := newTestRouter(t)
	s.Close()

	w := doJSON(t, router, http.MethodGet, "/api/r/abc123", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestUpdateLink(t *testing.T) {
	router, _ := newTestRouter(t)

	link := createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://old.com", ShortCode: "upd123"})

	w := doJSON(t, router, http.MethodPut, "/api/urls/"+link.ID, model.UpdateLinkRequest{OriginalURL: "https://new.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var updated model.Link
	json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.OriginalURL != "https://new.com" {
		t.Errorf("originalUrl = %s, want https://new.com", updated.OriginalURL)
	}

	// Redirect now targets the new destination.
	w = doJSON(t, router, http.MethodGet, "/api/r/upd123", nil)
	if loc := w.Header().Get("Location"); loc != "https://new.com" {
		t.Errorf("Location after update = %s, want https://new.com", loc)
	}
}

func TestUpdateLink_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPut, "/api/urls/no-such-id", model.UpdateLinkRequest{OriginalURL: "https://new.com"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteLink_RemovesFromList(t *testing.T) {
	router, _ := newTestRouter(t)

	keep := createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://keep.com", ShortCode: "keep12"})
	drop := createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://drop.com", ShortCode: "drop12"})

	w := doJSON(t, router, http.MethodDelete, "/api/urls/"+drop.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/urls", nil)
	var links []model.Link
	json.Unmarshal(w.Body.Bytes(), &links)
	if len(links) != 1 || links[0].ID != keep.ID {
		t.Errorf("list after delete = %+v, want only %s", links, keep.ID)
	}

	// Deleting again is still a success.
	w = doJSON(t, router, http.MethodDelete, "/api/urls/"+drop.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", w.Code)
	}
}

func TestListLinks_OwnerFilter(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://a.com", OwnerID: "alice", ShortCode: "aaa111"})
	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://b.com", OwnerID: "bob", ShortCode: "bbb222"})

	w := doJSON(t, router, http.MethodGet, "/api/urls?userId=alice", nil)
	var links []model.Link
	json.Unmarshal(w.Body.Bytes(), &links)
	if len(links) != 1 || links[0].OwnerID != "alice" {
		t.Errorf("filtered list = %+v, want only alice's link", links)
	}
}

func TestGetStats(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://a.com", ShortCode: "aaa111"})
	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://b.com", ShortCode: "bbb222"})

	for i := 0; i < 2; i++ {
		doJSON(t, router, http.MethodPost, "/api/urls/click/aaa111", nil)
	}

	w := doJSON(t, router, http.MethodGet, "/api/urls/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var stats model.DashboardStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.TotalLinks != 2 {
		t.Errorf("totalLinks = %d, want 2", stats.TotalLinks)
	}
	if stats.TotalClicks != 2 {
		t.Errorf("totalClicks = %d, want 2", stats.TotalClicks)
	}
	if stats.ClicksToday != 2 {
		t.Errorf("clicksToday = %d, want 2", stats.ClicksToday)
	}
	if stats.TopLink == nil || stats.TopLink.ShortCode != "aaa111" {
		t.Errorf("topLink = %+v, want aaa111", stats.TopLink)
	}
	if len(stats.Last7Days) != 7 {
		t.Errorf("last7Days length = %d, want 7", len(stats.Last7Days))
	}
}

func TestGenerateQR(t *testing.T) {
	router, _ := newTestRouter(t)

	createLink(t, router, model.CreateLinkRequest{OriginalURL: "https://a.com", ShortCode: "qrc123"})

	w := doJSON(t, router, http.MethodGet, "/api/urls/qr/qrc123", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %s, want image/png", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("empty QR image body")
	}
}

func TestGenerateQR_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/urls/qr/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestShortCodeUniquenessProperty(t *testing.T) {
	router, _ := newTestRouter(t)

	// Every accepted create carries a code no earlier create used.
	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		link := createLink(t, router, model.CreateLinkRequest{
			OriginalURL: fmt.Sprintf("https://example.com/%d", i),
		})
		if seen[link.ShortCode] {
			t.Fatalf("duplicate shortCode %s accepted", link.ShortCode)
		}
		seen[link.ShortCode] = true
	}
}
