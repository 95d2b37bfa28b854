package cleanup

import (
	"context"
	"fmt"
	"log"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// StatusPasses are the one-off bulk status and location fixes requested by
// the archive staff. Each is idempotent and safe to re-run.
type StatusPasses struct {
	items     repository.ItemRepository
	statuses  repository.StatusRepository
	changedBy *int64
}

// NewStatusPasses creates the status pass runner.
func NewStatusPasses(items repository.ItemRepository, statuses repository.StatusRepository, changedBy *int64) *StatusPasses {
	return &StatusPasses{items: items, statuses: statuses, changedBy: changedBy}
}

// FlagEmptyInventory tags every item with an empty inventory number as
// "Invalid inv no", skipping items already tagged.
func (p *StatusPasses) FlagEmptyInventory(ctx context.Context) (int, error) {
	items, err := p.items.ListMissingInventory(ctx)
	if err != nil {
		return 0, err
	}
	// ListMissingInventory also returns "invalid"-marked numbers; this pass
	// only concerns truly empty ones.
	var candidates []domain.Item
	for i := range items {
		if items[i].InventoryNumber == "" {
			candidates = append(candidates, items[i])
		}
	}
	log.Printf("[cleanup] found %d records with empty inventory number", len(candidates))
	return p.addStatus(ctx, candidates, domain.StatusInvalidInventoryNo)
}

// FlagEmptyLocations tags every item with no location information at all as
// "Invalid vault", skipping items already tagged.
func (p *StatusPasses) FlagEmptyLocations(ctx context.Context) (int, error) {
	items, err := p.items.ListMissingLocations(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("[cleanup] found %d records with empty locations", len(items))
	return p.addStatus(ctx, items, domain.StatusInvalidVault)
}

// SetHardDriveLocation sets hard_drive_location to "217" for every item
// carrying a hard drive name, the room the drives live in, and clears the
// "Invalid vault" tag from those items since their location is now known.
func (p *StatusPasses) SetHardDriveLocation(ctx context.Context) (updated, untagged int, err error) {
	items, err := p.items.ListWithHardDrive(ctx)
	if err != nil {
		return 0, 0, err
	}
	log.Printf("[cleanup] found %d records with a hard drive name", len(items))

	tag, err := p.statuses.GetByLabel(ctx, domain.StatusInvalidVault)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to look up status: %w", err)
	}
	tagged, err := p.taggedItems(ctx, items, tag.ID)
	if err != nil {
		return 0, 0, err
	}

	for i := range items {
		item := &items[i]
		fields := map[string]string{"hard_drive_location": "217"}
		if err := p.items.UpdateFields(ctx, item.ID, fields, p.changedBy); err != nil {
			return updated, untagged, err
		}
		updated++
		if tagged[item.ID] {
			if err := p.statuses.RemoveItemStatus(ctx, item.ID, tag.ID); err != nil {
				return updated, untagged, err
			}
			untagged++
		}
	}
	log.Printf("[cleanup] set hard_drive_location for %d records, removed %q from %d",
		updated, domain.StatusInvalidVault, untagged)
	return updated, untagged, nil
}

func (p *StatusPasses) addStatus(ctx context.Context, items []domain.Item, label string) (int, error) {
	tag, err := p.statuses.GetByLabel(ctx, label)
	if err != nil {
		return 0, fmt.Errorf("failed to look up status: %w", err)
	}
	tagged, err := p.taggedItems(ctx, items, tag.ID)
	if err != nil {
		return 0, err
	}

	added := 0
	for i := range items {
		if tagged[items[i].ID] {
			continue
		}
		if err := p.statuses.AddItemStatus(ctx, items[i].ID, tag.ID); err != nil {
			return added, err
		}
		added++
	}
	log.Printf("[cleanup] added %q status to %d records", label, added)
	return added, nil
}

func (p *StatusPasses) taggedItems(ctx context.Context, items []domain.Item, statusID int64) (map[int64]bool, error) {
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	statuses, err := p.statuses.StatusesForItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve statuses: %w", err)
	}
	tagged := make(map[int64]bool)
	for itemID, tags := range statuses {
		for _, tag := range tags {
			if tag.ID == statusID {
				tagged[itemID] = true
			}
		}
	}
	return tagged, nil
}
