package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"

	"github.com/xuri/excelize/v2"
)

// DefaultTapesSheet is the sheet of the external review workbook holding the
// tape status rows.
const DefaultTapesSheet = "Tapes(row 4560-24712)"

// DefaultStatusReportFile is where the importer writes its report workbook.
const DefaultStatusReportFile = "import_status_inventory_no_report.xlsx"

// Column headers of the external sheet this importer reads.
const (
	colFileFolder   = "File Folder Name"
	colSubFolder    = "Sub Folder"
	colFileName     = "File Name"
	colInventoryNo  = "Inventory_no"
	colIntervention = "Requires Manual Intervention"
)

// statusSubstrings maps the key phrases used consistently in the review
// sheet's intervention column to status tag labels.
var statusSubstrings = []struct {
	Substring string
	Label     string
}{
	{"inventory number in filename is incorrect", domain.StatusIncorrectInventoryNumber},
	{"duplicated in source data", domain.StatusDuplicatedInSource},
	{"invalid vault", domain.StatusInvalidVault},
	{"invalid inventory_no", domain.StatusInvalidInventoryNo},
	{"presence of multiple inventory_nos", domain.StatusMultipleInventoryNos},
	{"multiple corresponding inventory_no in pd", domain.StatusMultipleMatchesInPD},
}

// ParseStatusInfo parses a free-text intervention note into the status tag
// labels it mentions. Unknown text yields no labels.
func ParseStatusInfo(statusInfo string) []string {
	lowered := strings.ToLower(statusInfo)
	var labels []string
	for _, entry := range statusSubstrings {
		if strings.Contains(lowered, entry.Substring) {
			labels = append(labels, entry.Label)
		}
	}
	return labels
}

// StatusImportOptions selects what the importer updates. At least one of
// Inventory and Status must be set.
type StatusImportOptions struct {
	Inventory  bool
	Status     bool
	SheetName  string
	ReportPath string
}

// tapeRow is one parsed row of the external sheet.
type tapeRow struct {
	FileFolder   string
	SubFolder    string
	FileName     string
	InventoryNo  string
	Intervention string
}

// InventoryChange records an inventory number overwritten by the import,
// for the report workbook.
type InventoryChange struct {
	FileFolder string
	SubFolder  string
	FileName   string
	Before     string
	After      string
}

// StatusImportReport summarizes one import run.
type StatusImportReport struct {
	TotalRows        int
	Duplicates       int
	MissingData      int
	Updated          int
	MultipleMatches  []tapeRow
	NoMatches        []tapeRow
	InventoryChanges []InventoryChange
}

// StatusImporter applies status tags and inventory numbers from an external
// review workbook to items matched by their natural key.
type StatusImporter struct {
	items     repository.ItemRepository
	statuses  repository.StatusRepository
	changedBy *int64
}

// NewStatusImporter creates a status importer.
func NewStatusImporter(items repository.ItemRepository, statuses repository.StatusRepository, changedBy *int64) *StatusImporter {
	return &StatusImporter{items: items, statuses: statuses, changedBy: changedBy}
}

// Run reads the review sheet, drops duplicate and unusable rows, and updates
// every item matched exactly once by (file folder, sub folder, file name).
// Rows matching zero or several items are only reported; an XLSX report
// workbook is written to opts.ReportPath.
func (s *StatusImporter) Run(ctx context.Context, workbookPath string, opts StatusImportOptions) (StatusImportReport, error) {
	var report StatusImportReport
	if !opts.Inventory && !opts.Status {
		return report, errors.New("at least one of inventory numbers or status info must be selected")
	}
	sheetName := opts.SheetName
	if sheetName == "" {
		sheetName = DefaultTapesSheet
	}

	rows, err := readTapesSheet(workbookPath, sheetName, &report, opts)
	if err != nil {
		return report, err
	}
	log.Printf("[cleanup] status import: %d usable rows after dropping %d duplicates and %d missing data",
		len(rows), report.Duplicates, report.MissingData)

	labelIDs, err := s.statusLabelIDs(ctx)
	if err != nil {
		return report, err
	}

	for _, row := range rows {
		matches, err := s.items.ListByNaturalKey(ctx, row.FileFolder, row.SubFolder, row.FileName)
		if err != nil {
			return report, fmt.Errorf("failed to match row: %w", err)
		}

		switch len(matches) {
		case 1:
			if err := s.applyRow(ctx, &matches[0], row, opts, labelIDs, &report); err != nil {
				return report, err
			}
			report.Updated++
		case 0:
			report.NoMatches = append(report.NoMatches, row)
		default:
			report.MultipleMatches = append(report.MultipleMatches, row)
		}
	}

	log.Printf("[cleanup] status import: %d records updated, %d multiple matches, %d no matches",
		report.Updated, len(report.MultipleMatches), len(report.NoMatches))

	reportPath := opts.ReportPath
	if reportPath == "" {
		reportPath = DefaultStatusReportFile
	}
	if err := writeStatusReport(reportPath, report); err != nil {
		return report, err
	}
	return report, nil
}

func (s *StatusImporter) applyRow(ctx context.Context, item *domain.Item, row tapeRow, opts StatusImportOptions, labelIDs map[string]int64, report *StatusImportReport) error {
	if opts.Inventory {
		if item.InventoryNumber != "" && item.InventoryNumber != row.InventoryNo {
			report.InventoryChanges = append(report.InventoryChanges, InventoryChange{
				FileFolder: item.FileFolderName,
				SubFolder:  item.SubFolderName,
				FileName:   item.FileName,
				Before:     item.InventoryNumber,
				After:      row.InventoryNo,
			})
		}
		fields := map[string]string{"inventory_number": row.InventoryNo}
		if err := s.items.UpdateFields(ctx, item.ID, fields, s.changedBy); err != nil {
			return fmt.Errorf("failed to update inventory number: %w", err)
		}
	}
	if opts.Status {
		var statusIDs []int64
		for _, label := range ParseStatusInfo(row.Intervention) {
			statusIDs = append(statusIDs, labelIDs[label])
		}
		if err := s.statuses.SetItemStatuses(ctx, item.ID, statusIDs); err != nil {
			return fmt.Errorf("failed to set statuses: %w", err)
		}
	}
	return nil
}

func (s *StatusImporter) statusLabelIDs(ctx context.Context) (map[string]int64, error) {
	tags, err := s.statuses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	ids := make(map[string]int64, len(tags))
	for _, tag := range tags {
		ids[tag.Label] = tag.ID
	}
	return ids, nil
}

func readTapesSheet(workbookPath, sheetName string, report *StatusImportReport, opts StatusImportOptions) ([]tapeRow, error) {
	f, err := excelize.OpenFile(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	rawRows, err := f.GetRows(sheetName)
	if err != nil || len(rawRows) < 1 {
		return nil, fmt.Errorf("%w: missing sheet %q", domain.ErrLayoutMismatch, sheetName)
	}

	columns := make(map[string]int)
	for i, header := range rawRows[0] {
		columns[strings.TrimSpace(header)] = i
	}
	for _, required := range []string{colFileFolder, colSubFolder, colFileName} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: sheet %q missing column %q", domain.ErrLayoutMismatch, sheetName, required)
		}
	}

	pick := func(row []string, header string) string {
		idx, ok := columns[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []tapeRow
	seen := make(map[tapeRow]bool)
	for _, raw := range rawRows[1:] {
		report.TotalRows++
		row := tapeRow{
			FileFolder:   pick(raw, colFileFolder),
			SubFolder:    pick(raw, colSubFolder),
			FileName:     pick(raw, colFileName),
			InventoryNo:  pick(raw, colInventoryNo),
			Intervention: pick(raw, colIntervention),
		}
		if seen[row] {
			report.Duplicates++
			continue
		}
		seen[row] = true

		// A row with none of the requested data cannot contribute anything.
		missing := true
		if opts.Inventory && row.InventoryNo != "" {
			missing = false
		}
		if opts.Status && row.Intervention != "" {
			missing = false
		}
		if missing {
			report.MissingData++
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeStatusReport(path string, report StatusImportReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	rowHeaders := []string{colFileFolder, colSubFolder, colFileName, colInventoryNo, colIntervention}
	writeRowsSheet := func(sheet string, rows []tapeRow) error {
		if err := ensureSheet(f, sheet); err != nil {
			return err
		}
		if err := writeSheetRow(f, sheet, 1, rowHeaders); err != nil {
			return err
		}
		for i, row := range rows {
			values := []string{row.FileFolder, row.SubFolder, row.FileName, row.InventoryNo, row.Intervention}
			if err := writeSheetRow(f, sheet, i+2, values); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRowsSheet("multiple_matches", report.MultipleMatches); err != nil {
		return err
	}
	if err := writeRowsSheet("no_matches", report.NoMatches); err != nil {
		return err
	}
	if len(report.InventoryChanges) > 0 {
		sheet := "changed_inventory_numbers"
		if err := ensureSheet(f, sheet); err != nil {
			return err
		}
		headers := []string{"file_folder_name", "sub_folder_name", "file_name", "before", "after"}
		if err := writeSheetRow(f, sheet, 1, headers); err != nil {
			return err
		}
		for i, change := range report.InventoryChanges {
			values := []string{change.FileFolder, change.SubFolder, change.FileName, change.Before, change.After}
			if err := writeSheetRow(f, sheet, i+2, values); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	log.Printf("[cleanup] status import report written to %s", path)
	return nil
}

// ensureSheet renames the default sheet on first use, then adds sheets.
func ensureSheet(f *excelize.File, name string) error {
	sheets := f.GetSheetList()
	if len(sheets) == 1 && sheets[0] == "Sheet1" {
		return f.SetSheetName("Sheet1", name)
	}
	_, err := f.NewSheet(name)
	return err
}

func writeSheetRow(f *excelize.File, sheet string, rowNumber int, values []string) error {
	start, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, start, &values)
}
