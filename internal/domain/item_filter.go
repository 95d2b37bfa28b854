package domain

import "strings"

// StatusColumn is the virtual search column matching any of an item's
// status tag labels rather than a physical items column.
const StatusColumn = "status"

// DisplayColumn pairs a column name with the label shown in table headers.
type DisplayColumn struct {
	Column string
	Label  string
}

// DisplayColumns determines the columns rendered in the results table, in
// order. Column names must exist in the item field registry.
var DisplayColumns = []DisplayColumn{
	{"hard_drive_name", "Hard drive name"},
	{"file_folder_name", "File folder name"},
	{"sub_folder_name", "Sub-folder name"},
	{"file_name", "File name"},
}

// SearchableColumns is the explicit set of columns a free-text search runs
// against when no column is selected: the display columns plus the virtual
// status column.
var SearchableColumns = func() []string {
	columns := make([]string, 0, len(DisplayColumns)+1)
	for _, c := range DisplayColumns {
		columns = append(columns, c.Column)
	}
	return append(columns, StatusColumn)
}()

// ItemFilter selects items by a case-insensitive substring search, optionally
// restricted to one column. A blank search matches everything.
type ItemFilter struct {
	Search string
	Column string
}

// Columns returns the columns this filter searches: the selected column when
// set, otherwise all searchable columns.
func (f ItemFilter) Columns() []string {
	if f.Column != "" {
		return []string{f.Column}
	}
	return SearchableColumns
}

// IsSearchable reports whether the named column participates in search.
func IsSearchable(column string) bool {
	for _, c := range SearchableColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Matches reports whether an item satisfies the filter. statusLabels are the
// labels of the item's status tags, needed for the virtual status column.
// The SQL in the item repository implements the same semantics; this helper
// is the reference used by in-memory fakes and the ingestion dry-run tools.
func (f ItemFilter) Matches(item *Item, statusLabels []string) bool {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	for _, column := range f.Columns() {
		if column == StatusColumn {
			for _, label := range statusLabels {
				if strings.Contains(strings.ToLower(label), term) {
					return true
				}
			}
			continue
		}
		if strings.Contains(strings.ToLower(item.FieldValue(column)), term) {
			return true
		}
	}
	return false
}
