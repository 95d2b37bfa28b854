package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

// MemoryStore is an in-memory implementation of the repository interfaces
// with the same observable semantics as the Postgres versions. It backs the
// ingestion dry-run mode and the service tests, so there is a single source
// of state shared by the item, status, user, and history views.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[int64]domain.Item
	statuses   map[int64]domain.StatusTag
	links      map[int64]map[int64]bool // item id -> status ids
	users      map[int64]domain.User
	history    []domain.ChangeEntry
	nextItem   int64
	nextUser   int64
	nextChange int64
}

// NewMemoryStore creates an empty store pre-seeded with the standard status
// labels, mirroring the database migration.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		items:    make(map[int64]domain.Item),
		statuses: make(map[int64]domain.StatusTag),
		links:    make(map[int64]map[int64]bool),
		users:    make(map[int64]domain.User),
		nextItem: 1,
		nextUser: 1,
	}
	for i, label := range domain.StatusLabels {
		s.statuses[int64(i+1)] = domain.StatusTag{ID: int64(i + 1), Label: label}
	}
	return s
}

// Items returns the store's ItemRepository view.
func (s *MemoryStore) Items() ItemRepository { return (*memoryItems)(s) }

// Statuses returns the store's StatusRepository view.
func (s *MemoryStore) Statuses() StatusRepository { return (*memoryStatuses)(s) }

// Users returns the store's UserRepository view.
func (s *MemoryStore) Users() UserRepository { return (*memoryUsers)(s) }

// History returns the store's HistoryRepository view.
func (s *MemoryStore) History() HistoryRepository { return (*memoryHistory)(s) }

type memoryItems MemoryStore
type memoryStatuses MemoryStore
type memoryUsers MemoryStore
type memoryHistory MemoryStore

func (s *MemoryStore) statusLabelsLocked(itemID int64) []string {
	var labels []string
	for statusID := range s.links[itemID] {
		labels = append(labels, s.statuses[statusID].Label)
	}
	sort.Strings(labels)
	return labels
}

func (s *MemoryStore) sortedItemsLocked(match func(domain.Item) bool) []domain.Item {
	var out []domain.Item
	for _, item := range s.items {
		if match(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) recordLocked(entries []domain.ChangeEntry) {
	for _, entry := range entries {
		s.nextChange++
		entry.ID = s.nextChange
		if entry.ChangedAt.IsZero() {
			entry.ChangedAt = time.Now()
		}
		s.history = append(s.history, entry)
	}
}

func (m *memoryItems) Create(_ context.Context, item domain.Item) (domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.nextItem
	s.nextItem++
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.UpdatedAt = item.CreatedAt
	s.items[item.ID] = item
	return item, nil
}

func (m *memoryItems) CreateBatch(ctx context.Context, items []domain.Item) (int, error) {
	for _, item := range items {
		if _, err := m.Create(ctx, item); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func (m *memoryItems) GetByID(_ context.Context, id int64) (domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

func (m *memoryItems) Update(_ context.Context, item domain.Item, changedBy *int64) (domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[item.ID]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %d: %w", item.ID, domain.ErrNotFound)
	}
	entries := current.Changes(&item)
	for i := range entries {
		entries[i].ChangedBy = changedBy
	}
	s.recordLocked(entries)
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = time.Now()
	s.items[item.ID] = item
	return item, nil
}

func (m *memoryItems) UpdateFields(ctx context.Context, id int64, fields map[string]string, changedBy *int64) error {
	item, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for column, value := range fields {
		if !item.SetFieldValue(column, value) {
			return fmt.Errorf("unknown item column %q", column)
		}
	}
	_, err = m.Update(ctx, item, changedBy)
	return err
}

func (m *memoryItems) Delete(_ context.Context, ids []int64) (int, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := s.items[id]; ok {
			delete(s.items, id)
			delete(s.links, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memoryItems) List(_ context.Context, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := s.sortedItemsLocked(func(item domain.Item) bool {
		return filter.Matches(&item, s.statusLabelsLocked(item.ID))
	})
	total := len(matches)
	if offset > len(matches) {
		offset = len(matches)
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func (m *memoryItems) Count(ctx context.Context, filter domain.ItemFilter) (int, error) {
	_, total, err := m.List(ctx, filter, 0, 0)
	return total, err
}

func (m *memoryItems) ListInImportOrder(_ context.Context) ([]domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.sortedItemsLocked(func(domain.Item) bool { return true })
	sort.SliceStable(items, func(i, j int) bool { return items[i].RowIndex < items[j].RowIndex })
	return items, nil
}

func (m *memoryItems) ListByNaturalKey(_ context.Context, fileFolder, subFolder, fileName string) ([]domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItemsLocked(func(item domain.Item) bool {
		return item.FileFolderName == fileFolder &&
			item.SubFolderName == subFolder &&
			item.FileName == fileName
	}), nil
}

func (m *memoryItems) ListCarrierCandidates(_ context.Context, carrierColumn string) ([]domain.Item, error) {
	if carrierColumn != "carrier_a" && carrierColumn != "carrier_b" {
		return nil, fmt.Errorf("unknown carrier column %q", carrierColumn)
	}
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItemsLocked(func(item domain.Item) bool {
		return item.FieldValue(carrierColumn) != ""
	}), nil
}

func (m *memoryItems) ListMissingInventory(_ context.Context) ([]domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItemsLocked(func(item domain.Item) bool {
		return item.InventoryNumber == "" ||
			strings.Contains(strings.ToLower(item.InventoryNumber), "invalid")
	}), nil
}

func (m *memoryItems) ListMissingLocations(_ context.Context) ([]domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItemsLocked(func(item domain.Item) bool {
		return item.HardDriveLocation == "" &&
			item.CarrierALocation == "" &&
			item.CarrierBLocation == ""
	}), nil
}

func (m *memoryItems) ListWithHardDrive(_ context.Context) ([]domain.Item, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItemsLocked(func(item domain.Item) bool {
		return item.HardDriveName != ""
	}), nil
}

func (m *memoryItems) AssignUser(_ context.Context, ids []int64, userID *int64, changedBy *int64) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
	}
	for _, id := range ids {
		item := s.items[id]
		old := formatUserID(item.AssignedUserID)
		item.AssignedUserID = userID
		item.UpdatedAt = time.Now()
		s.items[id] = item
		s.recordLocked([]domain.ChangeEntry{{
			ItemID:    id,
			Field:     "assigned_user_id",
			OldValue:  old,
			NewValue:  formatUserID(userID),
			ChangedBy: changedBy,
		}})
	}
	return nil
}

func (m *memoryStatuses) List(_ context.Context) ([]domain.StatusTag, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	var tags []domain.StatusTag
	for _, tag := range s.statuses {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (m *memoryStatuses) GetByLabel(_ context.Context, label string) (domain.StatusTag, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range s.statuses {
		if tag.Label == label {
			return tag, nil
		}
	}
	return domain.StatusTag{}, fmt.Errorf("status %q: %w", label, domain.ErrNotFound)
}

func (m *memoryStatuses) StatusesForItems(_ context.Context, itemIDs []int64) (map[int64][]domain.StatusTag, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64][]domain.StatusTag)
	for _, id := range itemIDs {
		var tags []domain.StatusTag
		for statusID := range s.links[id] {
			tags = append(tags, s.statuses[statusID])
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
		if tags != nil {
			out[id] = tags
		}
	}
	return out, nil
}

func (m *memoryStatuses) SetItemStatuses(_ context.Context, itemID int64, statusIDs []int64) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	links := make(map[int64]bool, len(statusIDs))
	for _, id := range statusIDs {
		links[id] = true
	}
	s.links[itemID] = links
	return nil
}

func (m *memoryStatuses) AddItemStatus(_ context.Context, itemID, statusID int64) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links[itemID] == nil {
		s.links[itemID] = make(map[int64]bool)
	}
	s.links[itemID][statusID] = true
	return nil
}

func (m *memoryStatuses) RemoveItemStatus(_ context.Context, itemID, statusID int64) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links[itemID], statusID)
	return nil
}

func (m *memoryUsers) Create(_ context.Context, user domain.User) (domain.User, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextUser
	s.nextUser++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	return user, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id int64) (domain.User, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

func (m *memoryUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (m *memoryUsers) List(_ context.Context) ([]domain.User, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []domain.User
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memoryHistory) Record(_ context.Context, entries []domain.ChangeEntry) error {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(entries)
	return nil
}

func (m *memoryHistory) ListByItem(_ context.Context, itemID int64) ([]domain.ChangeEntry, error) {
	s := (*MemoryStore)(m)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChangeEntry
	for _, entry := range s.history {
		if entry.ItemID == itemID {
			out = append(out, entry)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.After(out[j].ChangedAt) })
	return out, nil
}
