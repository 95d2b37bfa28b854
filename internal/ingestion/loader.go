package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// Loader moves a converted batch into the items table.
type Loader struct {
	items repository.ItemRepository
}

// NewLoader creates a loader.
func NewLoader(items repository.ItemRepository) *Loader {
	return &Loader{items: items}
}

// Load bulk-inserts every record of the batch file in one transaction. With
// dryRun set it only reports what would be loaded.
func (l *Loader) Load(ctx context.Context, batchPath string, dryRun bool) (int, error) {
	batch, err := ReadBatchFile(batchPath)
	if err != nil {
		return 0, err
	}
	if len(batch.Records) == 0 {
		return 0, errors.New("batch contains no records")
	}

	if dryRun {
		for _, sheet := range batch.Sheets {
			log.Printf("[ingest] dry run: %d records from sheet %q", sheet.Records, sheet.Sheet)
		}
		log.Printf("[ingest] dry run: batch %s would load %d records", batch.ID, len(batch.Records))
		return len(batch.Records), nil
	}

	loaded, err := l.items.CreateBatch(ctx, batch.Records)
	if err != nil {
		return 0, fmt.Errorf("failed to load batch %s: %w", batch.ID, err)
	}
	log.Printf("[ingest] batch %s: loaded %d records", batch.ID, loaded)
	return loaded, nil
}
