package export

import (
	"fmt"
	"log"
	"net/http"

	"github.com/UCLALibrary/ftva-lab-data/internal/search"
)

// HTTPHandler serves search result downloads.
type HTTPHandler struct {
	service *Service
	engine  *search.Engine
}

// NewHTTPHandler creates an export HTTP handler. The search engine validates
// the filter parameters so export and search reject the same inputs.
func NewHTTPHandler(service *Service, engine *search.Engine) *HTTPHandler {
	return &HTTPHandler{service: service, engine: engine}
}

// ServeHTTP handles GET /api/items/export with the same search and
// search_column parameters as the search endpoint, ignoring pagination.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	filter, err := h.engine.Filter(search.Request{
		Search: query.Get("search"),
		Column: query.Get("search_column"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Stream the workbook straight to the response so large exports never
	// sit fully in memory. Errors after this point can only be logged; the
	// headers are already on the wire.
	filename := h.service.Filename()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	count, err := h.service.Export(r.Context(), filter, w)
	if err != nil {
		log.Printf("[HTTP] export interrupted after %d rows: %v", count, err)
	}
}
