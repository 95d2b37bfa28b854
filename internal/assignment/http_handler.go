package assignment

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/search"
)

// HTTPHandler serves the bulk assignment endpoint.
type HTTPHandler struct {
	service *Service
	engine  *search.Engine
}

// NewHTTPHandler creates an assignment HTTP handler. The search engine
// re-runs the caller's current page after the assignment is applied.
func NewHTTPHandler(service *Service, engine *search.Engine) *HTTPHandler {
	return &HTTPHandler{service: service, engine: engine}
}

type assignRequest struct {
	IDs          []int64 `json:"ids"`
	Target       string  `json:"target"`
	Search       string  `json:"search"`
	SearchColumn string  `json:"search_column"`
	Page         int     `json:"page"`
	ItemsPerPage int     `json:"items_per_page"`
}

// ServeHTTP handles POST /api/items/assign with a JSON or form body and
// responds with the re-run current search page.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := decodeAssignRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Assign(r.Context(), req.IDs, req.Target); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrPermissionDenied):
			status = http.StatusForbidden
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
		}
		log.Printf("[HTTP] assignment failed: %v", err)
		http.Error(w, err.Error(), status)
		return
	}

	page, err := h.engine.Search(r.Context(), search.Request{
		Search:   req.Search,
		Column:   req.SearchColumn,
		Page:     req.Page,
		PageSize: req.ItemsPerPage,
	})
	if err != nil {
		log.Printf("[HTTP] post-assignment search failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		log.Printf("[HTTP] failed to encode assignment response: %v", err)
	}
}

func decodeAssignRequest(r *http.Request) (assignRequest, error) {
	var req assignRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid request body")
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, errors.New("invalid form body")
	}
	for _, raw := range r.PostForm["ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, errors.New("invalid item id")
		}
		req.IDs = append(req.IDs, id)
	}
	req.Target = r.PostFormValue("target")
	req.Search = r.PostFormValue("search")
	req.SearchColumn = r.PostFormValue("search_column")
	req.Page, _ = strconv.Atoi(r.PostFormValue("page"))
	req.ItemsPerPage, _ = strconv.Atoi(r.PostFormValue("items_per_page"))
	return req, nil
}
