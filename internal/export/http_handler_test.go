package export

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UCLALibrary/ftva-lab-data/internal/search"
)

func TestHTTPHandlerStreamsWorkbookDownload(t *testing.T) {
	store := seedExportStore(t, 4)
	service := NewService(store.Items(), store.Statuses(), store.Users())
	engine := search.NewEngine(store.Items(), store.Statuses(), store.Users())
	handler := NewHTTPHandler(service, engine)

	req := httptest.NewRequest(http.MethodGet, "/api/items/export?search=drive00&search_column=hard_drive_name", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", got)
	}
	disp := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disp, "attachment; filename=ftva_dl_search_results_") {
		t.Errorf("unexpected disposition %q", disp)
	}

	// The response body is the workbook itself.
	rows := readRows(t, rec.Body)
	if len(rows) != 5 {
		t.Errorf("expected header plus 4 rows, got %d", len(rows))
	}
}

func TestHTTPHandlerRejectsBadRequestsBeforeStreaming(t *testing.T) {
	store := seedExportStore(t, 1)
	service := NewService(store.Items(), store.Statuses(), store.Users())
	engine := search.NewEngine(store.Items(), store.Statuses(), store.Users())
	handler := NewHTTPHandler(service, engine)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/export?search_column=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown column, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Errorf("no attachment headers expected on a rejected request")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items/export", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", rec.Code)
	}
}
