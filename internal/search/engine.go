package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// PageSizes is the allowed set of page sizes; the first entry is the default.
var PageSizes = []int{25, 50, 100, 250}

// DefaultPageSize is applied when no (or an invalid) size is requested.
const DefaultPageSize = 25

// Gap marks an elided stretch in a page range.
const Gap = -1

// Request describes one search/pagination invocation. Page is 1-based;
// Column empty means all searchable columns.
type Request struct {
	Search   string
	Column   string
	Page     int
	PageSize int
}

// Row is one result table row: the item plus its resolved status labels and
// assigned user display name.
type Row struct {
	Item       domain.Item `json:"item"`
	Statuses   []string    `json:"statuses"`
	AssignedTo string      `json:"assigned_to"`
}

// Page is one page of filtered results plus the pagination metadata needed
// to render compact controls.
type Page struct {
	Rows       []Row `json:"rows"`
	Number     int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	TotalCount int   `json:"total_count"`
	// Range is the elided page sequence; Gap entries stand for "...".
	Range []int `json:"page_range"`
}

// Engine runs filtered, paginated item queries with stable ordering.
type Engine struct {
	items    repository.ItemRepository
	statuses repository.StatusRepository
	users    repository.UserRepository
}

// NewEngine creates a new search engine.
func NewEngine(items repository.ItemRepository, statuses repository.StatusRepository, users repository.UserRepository) *Engine {
	return &Engine{items: items, statuses: statuses, users: users}
}

// Filter validates the request's search term and column, returning the
// filter shared by search and export.
func (e *Engine) Filter(req Request) (domain.ItemFilter, error) {
	column := strings.TrimSpace(req.Column)
	if column != "" && column != domain.StatusColumn {
		if _, ok := domain.FieldByColumn(column); !ok {
			return domain.ItemFilter{}, fmt.Errorf("unknown search column %q", column)
		}
	}
	return domain.ItemFilter{Search: strings.TrimSpace(req.Search), Column: column}, nil
}

// NormalizePageSize clamps a requested size to the allowed set.
func NormalizePageSize(size int) int {
	for _, allowed := range PageSizes {
		if size == allowed {
			return size
		}
	}
	return DefaultPageSize
}

// Search runs the filter and returns the requested page. Pages beyond the
// last clamp to the last page; an empty result set yields one empty page.
func (e *Engine) Search(ctx context.Context, req Request) (Page, error) {
	filter, err := e.Filter(req)
	if err != nil {
		return Page{}, err
	}

	pageSize := NormalizePageSize(req.PageSize)

	number := req.Page
	if number < 1 {
		number = 1
	}

	items, total, err := e.items.List(ctx, filter, pageSize, (number-1)*pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch page: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	// Requests past the end clamp to the last page; only then is a second
	// fetch needed.
	if number > totalPages {
		number = totalPages
		items, _, err = e.items.List(ctx, filter, pageSize, (number-1)*pageSize)
		if err != nil {
			return Page{}, fmt.Errorf("failed to fetch page: %w", err)
		}
	}

	rows, err := e.buildRows(ctx, items)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Rows:       rows,
		Number:     number,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: total,
		Range:      ElidedPageRange(number, totalPages, 5, 1),
	}, nil
}

func (e *Engine) buildRows(ctx context.Context, items []domain.Item) ([]Row, error) {
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	statuses, err := e.statuses.StatusesForItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve statuses: %w", err)
	}

	// The staff list is small; resolve assignment names from one lookup.
	users, err := e.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	names := make(map[int64]string, len(users))
	for _, user := range users {
		names[user.ID] = user.DisplayName()
	}

	rows := make([]Row, len(items))
	for i := range items {
		row := Row{Item: items[i], Statuses: []string{}}
		for _, tag := range statuses[items[i].ID] {
			row.Statuses = append(row.Statuses, tag.Label)
		}
		if items[i].AssignedUserID != nil {
			row.AssignedTo = names[*items[i].AssignedUserID]
		}
		rows[i] = row
	}
	return rows, nil
}

// ElidedPageRange returns the page numbers to render: the first and last
// onEnds pages, the onEachSide neighbors of current, and Gap markers where
// pages are skipped. Small page counts come back whole.
func ElidedPageRange(current, totalPages, onEachSide, onEnds int) []int {
	if totalPages <= (onEachSide+onEnds)*2 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	// A gap is only worth eliding when it hides more than one page; at the
	// exact boundary the run is extended instead of showing a one-page gap.
	var pages []int
	if current > onEachSide+onEnds+2 {
		for p := 1; p <= onEnds; p++ {
			pages = append(pages, p)
		}
		pages = append(pages, Gap)
		for p := current - onEachSide; p <= current; p++ {
			pages = append(pages, p)
		}
	} else {
		for p := 1; p <= current; p++ {
			pages = append(pages, p)
		}
	}

	if current < totalPages-onEachSide-onEnds-1 {
		for p := current + 1; p <= current+onEachSide; p++ {
			pages = append(pages, p)
		}
		pages = append(pages, Gap)
		for p := totalPages - onEnds + 1; p <= totalPages; p++ {
			pages = append(pages, p)
		}
	} else {
		for p := current + 1; p <= totalPages; p++ {
			pages = append(pages, p)
		}
	}
	return pages
}
