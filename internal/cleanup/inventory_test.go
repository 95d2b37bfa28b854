package cleanup

import (
	"context"
	"encoding/csv"
	"os"
	"reflect"
	"testing"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

func TestExtractInventoryNumbers(t *testing.T) {
	tests := []struct {
		name string
		item domain.Item
		want []string
	}{
		{
			"simple match in file name",
			domain.Item{FileFolderName: "Features", FileName: "M123456_Title.mov"},
			[]string{"M123456"},
		},
		{
			"suffix letter kept when word ends",
			domain.Item{FileName: "T12345A 2.mov"},
			[]string{"T12345A"},
		},
		{
			"suffix dropped when followed by letters",
			domain.Item{FileName: "Title_T01234ASYNC_Surround"},
			[]string{"T01234"},
		},
		{
			"preceding capital letter blocks the match",
			domain.Item{FileName: "XT123456.mov"},
			nil,
		},
		{
			"multiple distinct numbers pipe candidates in order",
			domain.Item{FileFolderName: "DVD9876", FileName: "FE55555.mov"},
			[]string{"DVD9876", "FE55555"},
		},
		{
			"duplicates collapse",
			domain.Item{FileFolderName: "M123456", FileName: "M123456.mov"},
			[]string{"M123456"},
		},
		{
			"known false positive removed",
			domain.Item{FileName: "Title_T01ASYNC_Surround"},
			nil,
		},
		{
			"no match",
			domain.Item{FileName: "plain_title.mov"},
			nil,
		},
	}
	for _, tt := range tests {
		got := ExtractInventoryNumbers(&tt.item)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInventoryExtractorDryRun(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileName: "M123456_Title.mov"},
		{RowIndex: 2, FileName: "untitled.mov"},
		{RowIndex: 3, FileName: "T99999.mov", InventoryNumber: "T88888"},
	})
	ctx := context.Background()
	dir := t.TempDir()

	updates, summaryPath, err := NewInventoryExtractor(store.Items(), nil).Run(ctx, dir, true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if len(updates) != 1 || updates[0].InventoryNumber != "M123456" {
		t.Fatalf("unexpected updates: %+v", updates)
	}

	// Dry run writes the summary but not the database.
	item, _ := store.Items().GetByID(ctx, 1)
	if item.InventoryNumber != "" {
		t.Errorf("dry run modified a record: %q", item.InventoryNumber)
	}

	f, err := os.Open(summaryPath)
	if err != nil {
		t.Fatalf("summary file missing: %v", err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "DRY RUN--NO RECORDS UPDATED" {
		t.Errorf("unexpected summary contents: %v", rows)
	}
}

func TestInventoryExtractorUpdatesEligibleRecords(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileName: "M123456_Title.mov"},
		{RowIndex: 2, FileName: "FE77777.mov", InventoryNumber: "invalid per review"},
		{RowIndex: 3, FileName: "T99999.mov", InventoryNumber: "T88888"},
	})
	ctx := context.Background()

	updates, _, err := NewInventoryExtractor(store.Items(), nil).Run(ctx, t.TempDir(), false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}

	first, _ := store.Items().GetByID(ctx, 1)
	if first.InventoryNumber != "M123456" {
		t.Errorf("expected extracted number, got %q", first.InventoryNumber)
	}
	// "invalid" numbers are eligible for replacement.
	second, _ := store.Items().GetByID(ctx, 2)
	if second.InventoryNumber != "FE77777" {
		t.Errorf("expected invalid number replaced, got %q", second.InventoryNumber)
	}
	// Items with a real inventory number are untouched.
	third, _ := store.Items().GetByID(ctx, 3)
	if third.InventoryNumber != "T88888" {
		t.Errorf("expected existing number kept, got %q", third.InventoryNumber)
	}
}

func TestInventoryExtractorPipeDelimitsMultipleNumbers(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, FileFolderName: "DVD9876", SubFolderName: "discs", FileName: "FE55555.mov"},
	})
	ctx := context.Background()

	updates, _, err := NewInventoryExtractor(store.Items(), nil).Run(ctx, t.TempDir(), false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(updates) != 1 || updates[0].InventoryNumber != "DVD9876|FE55555" {
		t.Fatalf("expected pipe-delimited numbers, got %+v", updates)
	}
}
