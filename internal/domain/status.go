package domain

// StatusTag is an enumerated lookup value attached to items, many-to-many.
type StatusTag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Legacy status labels seeded at migration time. The sheet importer parses
// free-text status notes against the substring map in cleanup.
const (
	StatusIncorrectInventoryNumber = "Inventory number in filename is incorrect"
	StatusDuplicatedInSource       = "Duplicated in Source Data"
	StatusInvalidVault             = "Invalid vault"
	StatusInvalidInventoryNo       = "Invalid inv no"
	StatusMultipleInventoryNos     = "Presence of multiple Inventory_nos"
	StatusMultipleMatchesInPD      = "Multiple corresponding Inventory_no in PD"
)

// StatusLabels lists every seeded label in migration order, so in-memory
// stores can mirror the database seed.
var StatusLabels = []string{
	StatusIncorrectInventoryNumber,
	StatusDuplicatedInSource,
	StatusInvalidVault,
	StatusInvalidInventoryNo,
	StatusMultipleInventoryNos,
	StatusMultipleMatchesInPD,
}
