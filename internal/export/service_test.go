package export

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"

	"github.com/xuri/excelize/v2"
)

func seedExportStore(t *testing.T, itemCount int) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < itemCount; i++ {
		if _, err := store.Items().Create(ctx, domain.Item{
			RowIndex:       int64(i + 1),
			HardDriveName:  fmt.Sprintf("Drive%03d", i+1),
			FileFolderName: "Features",
			FileName:       fmt.Sprintf("clip_%03d.mov", i+1),
		}); err != nil {
			t.Fatalf("failed to seed item: %v", err)
		}
	}
	return store
}

func readRows(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	return rows
}

func TestExportWritesAllMatchesAcrossPages(t *testing.T) {
	store := seedExportStore(t, 7)
	// A small page size forces several repository fetches.
	service := NewService(store.Items(), store.Statuses(), store.Users(), WithPageSize(3))

	var buf bytes.Buffer
	count, err := service.Export(context.Background(), domain.ItemFilter{}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 7 {
		t.Errorf("expected 7 rows written, got %d", count)
	}

	rows := readRows(t, &buf)
	if len(rows) != 8 {
		t.Fatalf("expected header plus 7 rows, got %d", len(rows))
	}
	// Ordered by id, first data row is the first item.
	if rows[1][0] != "Drive001" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
}

func TestExportHeaderLeadsWithDisplayColumns(t *testing.T) {
	store := seedExportStore(t, 1)
	service := NewService(store.Items(), store.Statuses(), store.Users())

	var buf bytes.Buffer
	if _, err := service.Export(context.Background(), domain.ItemFilter{}, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	rows := readRows(t, &buf)
	header := rows[0]
	for i, c := range domain.DisplayColumns {
		if header[i] != c.Label {
			t.Errorf("header column %d: got %q, want %q", i, header[i], c.Label)
		}
	}
	if len(header) != len(domain.ItemFields)+2 {
		t.Errorf("expected %d header columns, got %d", len(domain.ItemFields)+2, len(header))
	}
	if header[len(header)-2] != "Assigned to" || header[len(header)-1] != "Status" {
		t.Errorf("unexpected trailing headers: %v", header[len(header)-2:])
	}
}

func TestExportAppliesFilterAndIgnoresPagination(t *testing.T) {
	store := seedExportStore(t, 30)
	service := NewService(store.Items(), store.Statuses(), store.Users(), WithPageSize(10))

	var buf bytes.Buffer
	count, err := service.Export(context.Background(),
		domain.ItemFilter{Search: "drive00", Column: "hard_drive_name"}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	// Drive001 through Drive009 match the substring.
	if count != 9 {
		t.Errorf("expected 9 matching rows, got %d", count)
	}
}

func TestExportResolvesStatusesAndAssignment(t *testing.T) {
	store := seedExportStore(t, 1)
	ctx := context.Background()

	user, err := store.Users().Create(ctx, domain.User{
		Username: "jdoe", FirstName: "Jordan", LastName: "Doe", CanAssign: true,
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := store.Items().AssignUser(ctx, []int64{1}, &user.ID, nil); err != nil {
		t.Fatalf("failed to assign: %v", err)
	}
	tag, err := store.Statuses().GetByLabel(ctx, domain.StatusInvalidVault)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if err := store.Statuses().AddItemStatus(ctx, 1, tag.ID); err != nil {
		t.Fatalf("failed to tag item: %v", err)
	}

	service := NewService(store.Items(), store.Statuses(), store.Users())
	var buf bytes.Buffer
	if _, err := service.Export(ctx, domain.ItemFilter{}, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	rows := readRows(t, &buf)
	row := rows[1]
	if got := row[len(row)-2]; got != "Jordan Doe" {
		t.Errorf("expected assigned user name, got %q", got)
	}
	if got := row[len(row)-1]; got != domain.StatusInvalidVault {
		t.Errorf("expected status label, got %q", got)
	}
}

func TestExportEmptyResultHasOnlyHeader(t *testing.T) {
	store := seedExportStore(t, 3)
	service := NewService(store.Items(), store.Statuses(), store.Users())

	var buf bytes.Buffer
	count, err := service.Export(context.Background(), domain.ItemFilter{Search: "zzz"}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no rows, got %d", count)
	}
	rows := readRows(t, &buf)
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestFilenameFormat(t *testing.T) {
	service := NewService(nil, nil, nil)
	name := service.Filename()
	const prefix = "ftva_dl_search_results_"
	if len(name) != len(prefix)+len("20060102_150405")+len(".xlsx") {
		t.Errorf("unexpected filename length: %q", name)
	}
	if name[:len(prefix)] != prefix || name[len(name)-5:] != ".xlsx" {
		t.Errorf("unexpected filename: %q", name)
	}
}
