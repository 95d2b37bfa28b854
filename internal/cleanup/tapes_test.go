package cleanup

import (
	"context"
	"errors"
	"testing"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

func TestParseTapeInfoValid(t *testing.T) {
	tests := []struct {
		input    string
		tapeID   string
		location string
	}{
		{"820001", "820001", ""},
		{"AAB963", "AAB963", ""},
		{"CLNU04", "CLNU04", ""},
		{"M258178", "M258178", ""},
		{"  820001  ", "820001", ""},
		{"000027 (in vault) S217-01A 11C", "000027", "S217-01A-11C"},
		{"CLNU00 (in vault) S217-01A 11A", "CLNU00", "S217-01A-11A"},
		{"M265154 (to vault) S217-01A-13D", "M265154", "S217-01A-13D"},
	}
	for _, tt := range tests {
		tapeID, location, err := ParseTapeInfo(tt.input)
		if err != nil {
			t.Errorf("ParseTapeInfo(%q) failed: %v", tt.input, err)
			continue
		}
		if tapeID != tt.tapeID || location != tt.location {
			t.Errorf("ParseTapeInfo(%q) = %q, %q; want %q, %q",
				tt.input, tapeID, location, tt.tapeID, tt.location)
		}
	}
}

func TestParseTapeInfoInvalid(t *testing.T) {
	inputs := []string{
		"",
		"000028 & AAB967",
		"AAC018- LTO Corrupted- Will not mount (4/25/2018)",
		"CLNU02/AAC062 (in vault) S217-01A 11A",
		"Not on LTO AAB969",
		"M258145 Part 01 of 03 (to vault) S217-01A-13C",
		"820001 S217-01A 11C", // missing vault designator
		"12345",               // too short
		"aab963",              // lowercase
	}
	for _, input := range inputs {
		if _, _, err := ParseTapeInfo(input); !errors.Is(err, domain.ErrUnparseableCarrierField) {
			t.Errorf("ParseTapeInfo(%q): expected unparseable error, got %v", input, err)
		}
	}
}

func TestTapeCleanerRequiresExactlyOneMode(t *testing.T) {
	store := seedStore(t, nil)
	cleaner := NewTapeCleaner(store.Items(), nil)
	ctx := context.Background()

	if _, err := cleaner.Clean(ctx, TapeOptions{}); err == nil {
		t.Error("expected error with no mode chosen")
	}
	if _, err := cleaner.Clean(ctx, TapeOptions{UpdateRecords: true, ReportProblems: true}); err == nil {
		t.Error("expected error with both modes chosen")
	}
}

func TestTapeCleanerUpdateMode(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, CarrierA: "000027 (in vault) S217-01A 11C", FileName: "a.mov"},
		{RowIndex: 2, CarrierA: "AAB963", CarrierB: "M265154 (to vault) S217-01A-13D", FileName: "b.mov"},
		{RowIndex: 3, CarrierA: "Not on LTO AAB969", FileName: "c.mov"},
		{RowIndex: 4, FileName: "d.mov"},
	})
	ctx := context.Background()

	report, err := NewTapeCleaner(store.Items(), nil).Clean(ctx, TapeOptions{UpdateRecords: true})
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if report.Updated["carrier_a"] != 2 || report.Updated["carrier_b"] != 1 {
		t.Errorf("unexpected update counts: %v", report.Updated)
	}
	if len(report.Problems) != 0 {
		t.Errorf("update mode must not collect problems, got %v", report.Problems)
	}

	first, _ := store.Items().GetByID(ctx, 1)
	if first.CarrierA != "000027" || first.CarrierALocation != "S217-01A-11C" {
		t.Errorf("unexpected split: %q / %q", first.CarrierA, first.CarrierALocation)
	}
	second, _ := store.Items().GetByID(ctx, 2)
	if second.CarrierA != "AAB963" || second.CarrierALocation != "" {
		t.Errorf("bare tape id must not set a location: %q / %q", second.CarrierA, second.CarrierALocation)
	}
	if second.CarrierB != "M265154" || second.CarrierBLocation != "S217-01A-13D" {
		t.Errorf("unexpected carrier_b split: %q / %q", second.CarrierB, second.CarrierBLocation)
	}

	// Unparseable values are left alone in update mode.
	third, _ := store.Items().GetByID(ctx, 3)
	if third.CarrierA != "Not on LTO AAB969" {
		t.Errorf("unparseable value was modified: %q", third.CarrierA)
	}
}

func TestTapeCleanerReportMode(t *testing.T) {
	store := seedStore(t, []domain.Item{
		{RowIndex: 1, CarrierA: "000028 & AAB967", FileName: "a.mov"},
		{RowIndex: 2, CarrierA: "820001", FileName: "b.mov"},
	})
	ctx := context.Background()

	report, err := NewTapeCleaner(store.Items(), nil).Clean(ctx, TapeOptions{ReportProblems: true})
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if len(report.Problems) != 1 {
		t.Fatalf("expected 1 problem, got %d", len(report.Problems))
	}
	problem := report.Problems[0]
	if problem.ItemID != 1 || problem.Field != "carrier_a" || problem.Value != "000028 & AAB967" {
		t.Errorf("unexpected problem: %+v", problem)
	}

	// Report mode never writes.
	item, _ := store.Items().GetByID(ctx, 2)
	if item.CarrierA != "820001" {
		t.Errorf("report mode modified a record: %q", item.CarrierA)
	}
	if report.Updated["carrier_a"] != 0 {
		t.Errorf("report mode counted updates: %v", report.Updated)
	}
}
