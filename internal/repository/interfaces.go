package repository

import (
	"context"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

// ItemRepository defines the interface for item record operations.
// Mutating operations record field-level audit entries in the item history
// trail; readers never see partially applied writes.
type ItemRepository interface {
	Create(ctx context.Context, item domain.Item) (domain.Item, error)
	CreateBatch(ctx context.Context, items []domain.Item) (int, error)
	GetByID(ctx context.Context, id int64) (domain.Item, error)
	Update(ctx context.Context, item domain.Item, changedBy *int64) (domain.Item, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]string, changedBy *int64) error
	Delete(ctx context.Context, ids []int64) (int, error)

	// List applies the filter with stable id-ascending ordering; limit <= 0
	// returns all matches. The returned count is the total match count.
	List(ctx context.Context, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error)
	Count(ctx context.Context, filter domain.ItemFilter) (int, error)

	// ListInImportOrder returns every item ordered by the row index assigned
	// at ingestion, for the cleanup passes.
	ListInImportOrder(ctx context.Context) ([]domain.Item, error)
	ListByNaturalKey(ctx context.Context, fileFolder, subFolder, fileName string) ([]domain.Item, error)
	ListCarrierCandidates(ctx context.Context, carrierColumn string) ([]domain.Item, error)
	ListMissingInventory(ctx context.Context) ([]domain.Item, error)
	ListMissingLocations(ctx context.Context) ([]domain.Item, error)
	ListWithHardDrive(ctx context.Context) ([]domain.Item, error)

	// AssignUser sets the assigned user (nil to unassign) on every named item
	// in one transaction. Any unknown id fails the whole operation with
	// domain.ErrNotFound.
	AssignUser(ctx context.Context, ids []int64, userID *int64, changedBy *int64) error
}

// StatusRepository defines the interface for status tag operations.
type StatusRepository interface {
	List(ctx context.Context) ([]domain.StatusTag, error)
	GetByLabel(ctx context.Context, label string) (domain.StatusTag, error)
	StatusesForItems(ctx context.Context, itemIDs []int64) (map[int64][]domain.StatusTag, error)
	SetItemStatuses(ctx context.Context, itemID int64, statusIDs []int64) error
	AddItemStatus(ctx context.Context, itemID, statusID int64) error
	RemoveItemStatus(ctx context.Context, itemID, statusID int64) error
}

// UserRepository defines the interface for staff account operations.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// HistoryRepository reads the append-only item audit trail.
type HistoryRepository interface {
	Record(ctx context.Context, entries []domain.ChangeEntry) error
	ListByItem(ctx context.Context, itemID int64) ([]domain.ChangeEntry, error)
}
