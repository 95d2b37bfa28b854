package cleanup

import (
	"context"
	"testing"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

func seedStore(t *testing.T, items []domain.Item) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, item := range items {
		if _, err := store.Items().Create(ctx, item); err != nil {
			t.Fatalf("failed to seed item: %v", err)
		}
	}
	return store
}

func TestRunnerDeletesEmptyRecords(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileName: "keep.mov"},
		{RowIndex: 2},
		{RowIndex: 3, Notes: "   "},
	})
	ctx := context.Background()

	report, err := NewRunner(store.Items(), nil).Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.EmptyDeleted != 2 {
		t.Errorf("expected 2 empty records deleted, got %d", report.EmptyDeleted)
	}
	remaining, _ := store.Items().ListInImportOrder(ctx)
	if len(remaining) != 1 || remaining[0].FileName != "keep.mov" {
		t.Errorf("unexpected survivors: %+v", remaining)
	}
}

func TestRunnerDeletesHeaderArtifactsBeforeBackfill(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, HardDriveName: "Drive A", FileFolderName: "Features", FileName: "a.mov"},
		{RowIndex: 2, HardDriveName: "Hard drive name", FileFolderName: "File folder name", FileName: "File name"},
		{RowIndex: 3, FileName: "b.mov"},
	})
	ctx := context.Background()

	report, err := NewRunner(store.Items(), nil).Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.HeaderDeleted != 1 {
		t.Errorf("expected 1 header artifact deleted, got %d", report.HeaderDeleted)
	}

	// The header row must not act as a backfill source: row 3 inherits from
	// row 1, not from the header labels.
	items, _ := store.Items().ListInImportOrder(ctx)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	last := items[1]
	if last.HardDriveName != "Drive A" || last.FileFolderName != "Features" {
		t.Errorf("expected backfill from real data, got %q / %q", last.HardDriveName, last.FileFolderName)
	}
}

func TestRunnerBackfillCarriesNearestPrecedingValue(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, HardDriveName: "Drive A", FileFolderName: "Folder 1", FileName: "a.mov"},
		{RowIndex: 2, FileName: "b.mov"},
		{RowIndex: 3, HardDriveName: "Drive B", FileName: "c.mov"},
		{RowIndex: 4, FileFolderName: "Folder 2", FileName: "d.mov"},
		{RowIndex: 5, FileName: "e.mov"},
	})
	ctx := context.Background()

	report, err := NewRunner(store.Items(), nil).Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Backfilled != 4 {
		t.Errorf("expected 4 records backfilled, got %d", report.Backfilled)
	}

	items, _ := store.Items().ListInImportOrder(ctx)
	want := []struct{ drive, folder string }{
		{"Drive A", "Folder 1"},
		{"Drive A", "Folder 1"},
		{"Drive B", "Folder 1"},
		{"Drive B", "Folder 2"},
		{"Drive B", "Folder 2"},
	}
	for i, w := range want {
		if items[i].HardDriveName != w.drive || items[i].FileFolderName != w.folder {
			t.Errorf("row %d: got %q / %q, want %q / %q",
				i+1, items[i].HardDriveName, items[i].FileFolderName, w.drive, w.folder)
		}
	}

	// After backfill every row has values; no row looked ahead.
	for i := range items {
		if items[i].HardDriveName == "" {
			t.Errorf("row %d still blank after backfill", i+1)
		}
	}
}

func TestRunnerLeadingBlanksStayBlank(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileName: "orphan.mov"},
		{RowIndex: 2, HardDriveName: "Drive A", FileName: "a.mov"},
	})
	ctx := context.Background()

	if _, err := NewRunner(store.Items(), nil).Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	items, _ := store.Items().ListInImportOrder(ctx)
	if items[0].HardDriveName != "" {
		t.Errorf("expected no look-ahead fill, got %q", items[0].HardDriveName)
	}
}

func TestRunnerDeletesDriveOnlyRows(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, HardDriveName: "Drive A"},
		{RowIndex: 2, FileName: "a.mov"},
	})
	ctx := context.Background()

	report, err := NewRunner(store.Items(), nil).Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.DriveOnlyDeleted != 1 {
		t.Errorf("expected 1 drive-only record deleted, got %d", report.DriveOnlyDeleted)
	}

	// The separator row contributed its drive name before being removed.
	items, _ := store.Items().ListInImportOrder(ctx)
	if len(items) != 1 || items[0].HardDriveName != "Drive A" {
		t.Errorf("unexpected result: %+v", items)
	}
}

func TestRunnerIsIdempotent(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, HardDriveName: "Drive A", FileFolderName: "Folder", FileName: "a.mov"},
		{RowIndex: 2, FileName: "b.mov"},
		{RowIndex: 3},
	})
	ctx := context.Background()
	runner := NewRunner(store.Items(), nil)

	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if report.EmptyDeleted != 0 || report.Backfilled != 0 ||
		report.HeaderDeleted != 0 || report.DriveOnlyDeleted != 0 {
		t.Errorf("expected a no-op second run, got %+v", report)
	}
}

func TestFlagEmptyInventory(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileName: "a.mov"},
		{RowIndex: 2, FileName: "b.mov", InventoryNumber: "M123456"},
	})
	ctx := context.Background()
	passes := NewStatusPasses(store.Items(), store.Statuses(), nil)

	added, err := passes.FlagEmptyInventory(ctx)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 record tagged, got %d", added)
	}

	// Re-running skips the already tagged record.
	added, err = passes.FlagEmptyInventory(ctx)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if added != 0 {
		t.Errorf("expected idempotent re-run, got %d", added)
	}
}

func TestFlagEmptyLocations(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileName: "a.mov"},
		{RowIndex: 2, FileName: "b.mov", CarrierALocation: "S217-01A-11C"},
		{RowIndex: 3, FileName: "c.mov", HardDriveLocation: "217"},
	})
	ctx := context.Background()
	passes := NewStatusPasses(store.Items(), store.Statuses(), nil)

	added, err := passes.FlagEmptyLocations(ctx)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected only the fully location-less record tagged, got %d", added)
	}
}

func TestSetHardDriveLocation(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, HardDriveName: "Drive A", FileName: "a.mov"},
		{RowIndex: 2, FileName: "b.mov"},
	})
	ctx := context.Background()
	passes := NewStatusPasses(store.Items(), store.Statuses(), nil)

	// Tag the drive item as Invalid vault first; the pass must clear it.
	tag, err := store.Statuses().GetByLabel(ctx, domain.StatusInvalidVault)
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if err := store.Statuses().AddItemStatus(ctx, 1, tag.ID); err != nil {
		t.Fatalf("failed to tag item: %v", err)
	}

	updated, untagged, err := passes.SetHardDriveLocation(ctx)
	if err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if updated != 1 || untagged != 1 {
		t.Errorf("expected 1 updated and 1 untagged, got %d / %d", updated, untagged)
	}

	item, _ := store.Items().GetByID(ctx, 1)
	if item.HardDriveLocation != "217" {
		t.Errorf("expected location 217, got %q", item.HardDriveLocation)
	}
	statuses, _ := store.Statuses().StatusesForItems(ctx, []int64{1})
	if len(statuses[1]) != 0 {
		t.Errorf("expected Invalid vault cleared, got %v", statuses[1])
	}
}
