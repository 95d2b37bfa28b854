package cleanup

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// Inventory numbers are one of eight known prefixes followed by two or more
// digits and an optional one-letter suffix. The pattern alone over-matches;
// candidate boundaries are checked in code because the regexp package has no
// lookaround.
var inventoryNumberPattern = regexp.MustCompile(`(?:DVD|FE|HFA|M|T|VA|XFE|XFF|XVE)\d{2,}[A-Z]?`)

// knownFalsePositives are strings that match the inventory number pattern
// but are known not to be real inventory numbers.
var knownFalsePositives = []string{"T01"}

// ExtractInventoryNumbers finds inventory numbers embedded in the path-like
// fields of one item: the folder, sub-folder, and file name joined as a
// path. Multiple distinct numbers come back in encounter order.
func ExtractInventoryNumbers(item *domain.Item) []string {
	pathString := strings.Join(
		[]string{item.FileFolderName, item.SubFolderName, item.FileName}, "/")

	var numbers []string
	seen := make(map[string]bool)
	for _, loc := range inventoryNumberPattern.FindAllStringIndex(pathString, -1) {
		match := pathString[loc[0]:loc[1]]

		// A preceding capital letter means the prefix is really the tail of
		// a longer token, not an inventory number.
		if loc[0] > 0 {
			before := pathString[loc[0]-1]
			if before >= 'A' && before <= 'Z' {
				continue
			}
		}
		// The optional suffix letter only counts when not followed by more
		// letters; otherwise it belongs to the next word and is dropped.
		last := match[len(match)-1]
		if last >= 'A' && last <= 'Z' && loc[1] < len(pathString) {
			next := pathString[loc[1]]
			if (next >= 'A' && next <= 'Z') || (next >= 'a' && next <= 'z') {
				match = match[:len(match)-1]
			}
		}

		if isKnownFalsePositive(match) || seen[match] {
			continue
		}
		seen[match] = true
		numbers = append(numbers, match)
	}
	return numbers
}

func isKnownFalsePositive(candidate string) bool {
	for _, fp := range knownFalsePositives {
		if candidate == fp {
			return true
		}
	}
	return false
}

// InventoryExtraction is one item's proposed inventory number update.
type InventoryExtraction struct {
	ItemID          int64
	InventoryNumber string
	FileFolderName  string
	SubFolderName   string
	FileName        string
}

// InventoryExtractor backfills inventory numbers for items whose inventory
// number is blank or flagged invalid, by mining the path-like fields.
type InventoryExtractor struct {
	items     repository.ItemRepository
	changedBy *int64
}

// NewInventoryExtractor creates an inventory extractor.
func NewInventoryExtractor(items repository.ItemRepository, changedBy *int64) *InventoryExtractor {
	return &InventoryExtractor{items: items, changedBy: changedBy}
}

// Run extracts inventory numbers for every eligible item, writes a CSV
// summary next to outDir, and applies the updates unless dryRun is set.
// Multiple numbers for one item are stored pipe-delimited. Returns the
// proposed updates and the summary file path.
func (e *InventoryExtractor) Run(ctx context.Context, outDir string, dryRun bool) ([]InventoryExtraction, string, error) {
	items, err := e.items.ListMissingInventory(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list items without inventory numbers: %w", err)
	}

	var updates []InventoryExtraction
	for i := range items {
		item := &items[i]
		numbers := ExtractInventoryNumbers(item)
		if len(numbers) == 0 {
			continue
		}
		updates = append(updates, InventoryExtraction{
			ItemID:          item.ID,
			InventoryNumber: strings.Join(numbers, "|"),
			FileFolderName:  item.FileFolderName,
			SubFolderName:   item.SubFolderName,
			FileName:        item.FileName,
		})
	}
	log.Printf("[cleanup] extract-inventory: %d records to update", len(updates))

	summaryPath, err := writeInventorySummary(outDir, updates, dryRun)
	if err != nil {
		return updates, "", err
	}

	if dryRun {
		log.Printf("[cleanup] extract-inventory: dry run, summary written to %s", summaryPath)
		return updates, summaryPath, nil
	}

	for _, update := range updates {
		fields := map[string]string{"inventory_number": update.InventoryNumber}
		if err := e.items.UpdateFields(ctx, update.ItemID, fields, e.changedBy); err != nil {
			return updates, summaryPath, fmt.Errorf("failed to update item %d: %w", update.ItemID, err)
		}
	}
	log.Printf("[cleanup] extract-inventory: updated %d records, summary written to %s", len(updates), summaryPath)
	return updates, summaryPath, nil
}

func writeInventorySummary(outDir string, updates []InventoryExtraction, dryRun bool) (string, error) {
	name := fmt.Sprintf("extract_inventory_numbers_%s.csv", time.Now().Format("20060102_150405"))
	if dryRun {
		name = "DRY_RUN_" + name
	}
	path := filepath.Join(outDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if dryRun {
		if err := w.Write([]string{"DRY RUN--NO RECORDS UPDATED"}); err != nil {
			return "", err
		}
	}
	header := []string{"id", "inventory_number", "file_folder_name", "sub_folder", "file_name"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, update := range updates {
		row := []string{
			strconv.FormatInt(update.ItemID, 10),
			update.InventoryNumber,
			update.FileFolderName,
			update.SubFolderName,
			update.FileName,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}
