package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// DefaultBatchFile is where Convert writes its output unless told otherwise.
const DefaultBatchFile = "sheet_data.json"

// Layout fixes the expected column order of one source sheet. Columns are
// item registry column names in sheet order; the header row of the sheet
// must carry the matching registry labels.
type Layout struct {
	Key       string
	SheetName string
	Columns   []string
}

// Layouts are the known source sheets of the tracking workbook, keyed by the
// short names used on the command line.
var Layouts = map[string]Layout{
	"main": {
		Key:       "main",
		SheetName: "LTO-Backup",
		Columns:   domain.ItemColumns(),
	},
	"hearst": {
		Key:       "hearst",
		SheetName: "Hearst ML Tapes",
		Columns: []string{
			"carrier_a",
			"carrier_a_location",
			"file_folder_name",
			"file_name",
			"notes",
		},
	},
}

// SheetCount reports how many records one sheet contributed to a batch.
type SheetCount struct {
	Sheet   string `json:"sheet"`
	Records int    `json:"records"`
}

// Batch is the intermediate conversion output: the parsed records plus
// enough metadata to audit where they came from. It is written to disk as
// JSON and loaded into the database as a separate explicit step.
type Batch struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	Sheets    []SheetCount  `json:"sheets"`
	Records   []domain.Item `json:"records"`
}

// Converter turns tracking workbook sheets into load batches without
// touching the database.
type Converter struct{}

// NewConverter creates a converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert parses the named sheets of the workbook into one batch. sheetKeys
// name entries of Layouts; an empty list converts every known layout whose
// sheet is present. Blank cells become empty strings and rows keep their
// sheet order through RowIndex, assigned sequentially across sheets.
func (c *Converter) Convert(workbookPath string, sheetKeys []string) (Batch, error) {
	batch := Batch{
		ID:        uuid.New().String(),
		Source:    workbookPath,
		CreatedAt: time.Now(),
	}

	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return batch, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	layouts, err := resolveLayouts(f, sheetKeys)
	if err != nil {
		return batch, err
	}

	rowIndex := int64(0)
	for _, layout := range layouts {
		records, err := convertSheet(f, layout, &rowIndex)
		if err != nil {
			return batch, err
		}
		batch.Records = append(batch.Records, records...)
		batch.Sheets = append(batch.Sheets, SheetCount{Sheet: layout.SheetName, Records: len(records)})
	}

	return batch, nil
}

// WriteFile serializes the batch as indented JSON.
func (b Batch) WriteFile(path string) error {
	payload, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize batch: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write batch file: %w", err)
	}
	return nil
}

// ReadBatchFile loads a batch previously written by WriteFile.
func ReadBatchFile(path string) (Batch, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch Batch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return Batch{}, fmt.Errorf("failed to parse batch file: %w", err)
	}
	return batch, nil
}

func resolveLayouts(f *excelize.File, sheetKeys []string) ([]Layout, error) {
	if len(sheetKeys) == 0 {
		// Convert every known sheet present in the workbook, main first.
		var layouts []Layout
		for _, key := range []string{"main", "hearst"} {
			layout := Layouts[key]
			if sheetExists(f, layout.SheetName) {
				layouts = append(layouts, layout)
			}
		}
		if len(layouts) == 0 {
			return nil, fmt.Errorf("%w: no known sheets in workbook", domain.ErrLayoutMismatch)
		}
		return layouts, nil
	}

	layouts := make([]Layout, 0, len(sheetKeys))
	for _, key := range sheetKeys {
		layout, ok := Layouts[key]
		if !ok {
			return nil, fmt.Errorf("unknown sheet layout %q", key)
		}
		layouts = append(layouts, layout)
	}
	return layouts, nil
}

func sheetExists(f *excelize.File, name string) bool {
	for _, sheet := range f.GetSheetList() {
		if sheet == name {
			return true
		}
	}
	return false
}

func convertSheet(f *excelize.File, layout Layout, rowIndex *int64) ([]domain.Item, error) {
	rows, err := f.GetRows(layout.SheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q not readable", domain.ErrLayoutMismatch, layout.SheetName)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", domain.ErrLayoutMismatch, layout.SheetName)
	}

	if err := verifyHeader(layout, rows[0]); err != nil {
		return nil, err
	}

	var records []domain.Item
	for _, row := range rows[1:] {
		*rowIndex++
		item := domain.Item{RowIndex: *rowIndex}
		for col, column := range layout.Columns {
			value := ""
			if col < len(row) {
				value = strings.TrimSpace(row[col])
			}
			item.SetFieldValue(column, value)
		}
		records = append(records, item)
	}
	return records, nil
}

// verifyHeader checks the sheet's header row against the layout's expected
// labels, trimmed and case-folded. A sheet whose columns moved since the
// layout was fixed must fail loudly rather than load values into the wrong
// fields.
func verifyHeader(layout Layout, header []string) error {
	for col, column := range layout.Columns {
		field, ok := domain.FieldByColumn(column)
		if !ok {
			return fmt.Errorf("layout %q names unknown column %q", layout.Key, column)
		}
		got := ""
		if col < len(header) {
			got = strings.TrimSpace(header[col])
		}
		if !strings.EqualFold(got, field.Label) {
			return fmt.Errorf("%w: sheet %q column %d: expected header %q, found %q",
				domain.ErrLayoutMismatch, layout.SheetName, col+1, field.Label, got)
		}
	}
	return nil
}
