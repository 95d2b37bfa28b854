package domain

import "time"

// ChangeEntry is one field-level change in an item's audit trail. Entries
// are append-only; nothing modifies them after creation.
type ChangeEntry struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy *int64    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
