package search

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
)

const pageSizeCookie = "items_per_page"

// HTTPHandler serves the item search endpoint.
type HTTPHandler struct {
	engine *Engine
}

// NewHTTPHandler creates a search HTTP handler.
func NewHTTPHandler(engine *Engine) *HTTPHandler {
	return &HTTPHandler{engine: engine}
}

// ServeHTTP handles GET /api/items. The chosen page size sticks via a
// session cookie so subsequent requests keep it.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	req := Request{
		Search: query.Get("search"),
		Column: query.Get("search_column"),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		req.Page = page
	} else {
		req.Page = 1
	}

	req.PageSize = h.resolvePageSize(w, r)

	page, err := h.engine.Search(r.Context(), req)
	if err != nil {
		log.Printf("[HTTP] search failed: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		log.Printf("[HTTP] failed to encode search response: %v", err)
	}
}

// resolvePageSize prefers an explicit query parameter, falling back to the
// cookie from a previous request. An explicit choice refreshes the cookie.
func (h *HTTPHandler) resolvePageSize(w http.ResponseWriter, r *http.Request) int {
	if raw := r.URL.Query().Get(pageSizeCookie); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			size = NormalizePageSize(size)
			http.SetCookie(w, &http.Cookie{
				Name:     pageSizeCookie,
				Value:    strconv.Itoa(size),
				Path:     "/",
				HttpOnly: true,
			})
			return size
		}
	}
	if cookie, err := r.Cookie(pageSizeCookie); err == nil {
		if size, err := strconv.Atoi(cookie.Value); err == nil {
			return NormalizePageSize(size)
		}
	}
	return DefaultPageSize
}
