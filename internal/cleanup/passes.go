package cleanup

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// Report counts what each cleanup pass changed.
type Report struct {
	EmptyDeleted     int
	Backfilled       int
	HeaderDeleted    int
	DriveOnlyDeleted int
}

// Runner executes the post-import cleanup passes over the whole items table.
// Each pass commits before the next starts and every pass is idempotent, so
// an interrupted run can simply be repeated. The sequence is a batch
// activity; it is not meant to run alongside interactive edits.
type Runner struct {
	items     repository.ItemRepository
	changedBy *int64
}

// NewRunner creates a cleanup runner. changedBy attributes the audit entries
// of the backfill pass; nil records them as system changes.
func NewRunner(items repository.ItemRepository, changedBy *int64) *Runner {
	return &Runner{items: items, changedBy: changedBy}
}

// Run executes the fixed pass sequence: delete empty rows, delete header
// artifacts, backfill carried values, delete drive-only rows.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report
	var err error

	if report.EmptyDeleted, err = r.deleteEmpty(ctx); err != nil {
		return report, fmt.Errorf("delete-empty pass: %w", err)
	}
	log.Printf("[cleanup] delete-empty: %d records deleted", report.EmptyDeleted)

	if report.HeaderDeleted, err = r.deleteHeaders(ctx); err != nil {
		return report, fmt.Errorf("delete-header pass: %w", err)
	}
	log.Printf("[cleanup] delete-header: %d records deleted", report.HeaderDeleted)

	if report.Backfilled, err = r.backfill(ctx); err != nil {
		return report, fmt.Errorf("backfill pass: %w", err)
	}
	log.Printf("[cleanup] backfill: %d records updated", report.Backfilled)

	if report.DriveOnlyDeleted, err = r.deleteDriveOnly(ctx); err != nil {
		return report, fmt.Errorf("delete-drive-only pass: %w", err)
	}
	log.Printf("[cleanup] delete-drive-only: %d records deleted", report.DriveOnlyDeleted)

	return report, nil
}

// deleteEmpty removes records whose combined field data trims to nothing.
// Rows like this carry no information beyond the system-assigned id.
func (r *Runner) deleteEmpty(ctx context.Context) (int, error) {
	items, err := r.items.ListInImportOrder(ctx)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for i := range items {
		if items[i].IsEmpty() {
			ids = append(ids, items[i].ID)
		}
	}
	return r.items.Delete(ctx, ids)
}

// backfill fills blank hard_drive_name and file_folder_name values from the
// nearest preceding non-blank value in original sheet order. The source
// sheet relied on visual grouping, leaving these cells blank on continuation
// rows; the carry never looks ahead.
func (r *Runner) backfill(ctx context.Context) (int, error) {
	items, err := r.items.ListInImportOrder(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	lastDrive := ""
	lastFolder := ""
	for i := range items {
		item := &items[i]
		fields := make(map[string]string)

		if strings.TrimSpace(item.HardDriveName) == "" {
			if lastDrive != "" {
				fields["hard_drive_name"] = lastDrive
			}
		} else {
			lastDrive = item.HardDriveName
		}

		if strings.TrimSpace(item.FileFolderName) == "" {
			if lastFolder != "" {
				fields["file_folder_name"] = lastFolder
			}
		} else {
			lastFolder = item.FileFolderName
		}

		if len(fields) == 0 {
			continue
		}
		if err := r.items.UpdateFields(ctx, item.ID, fields, r.changedBy); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// deleteHeaders removes header artifact rows, which the sheet export
// produced wherever the source repeated its column headers mid-data. Such a
// row's non-blank values are exactly its own column labels.
func (r *Runner) deleteHeaders(ctx context.Context) (int, error) {
	items, err := r.items.ListInImportOrder(ctx)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for i := range items {
		if isHeaderArtifact(&items[i]) {
			ids = append(ids, items[i].ID)
		}
	}
	return r.items.Delete(ctx, ids)
}

func isHeaderArtifact(item *domain.Item) bool {
	nonBlank := 0
	for _, f := range domain.ItemFields {
		value := strings.TrimSpace(f.Get(item))
		if value == "" {
			continue
		}
		nonBlank++
		if !strings.EqualFold(value, f.Label) {
			return false
		}
	}
	return nonBlank > 0
}

// deleteDriveOnly removes rows whose only content is a hard drive name.
// After backfill these are the group separator rows of the source sheet.
func (r *Runner) deleteDriveOnly(ctx context.Context) (int, error) {
	items, err := r.items.ListInImportOrder(ctx)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for i := range items {
		if isDriveOnly(&items[i]) {
			ids = append(ids, items[i].ID)
		}
	}
	return r.items.Delete(ctx, ids)
}

func isDriveOnly(item *domain.Item) bool {
	if strings.TrimSpace(item.HardDriveName) == "" {
		return false
	}
	for _, f := range domain.ItemFields {
		if f.Column == "hard_drive_name" {
			continue
		}
		if strings.TrimSpace(f.Get(item)) != "" {
			return false
		}
	}
	return true
}
