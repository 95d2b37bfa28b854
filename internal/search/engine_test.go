package search

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

func newTestEngine(t *testing.T, items []domain.Item) (*Engine, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, item := range items {
		if _, err := store.Items().Create(ctx, item); err != nil {
			t.Fatalf("failed to seed item: %v", err)
		}
	}
	return NewEngine(store.Items(), store.Statuses(), store.Users()), store
}

func seedItems(n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{
			RowIndex:       int64(i + 1),
			HardDriveName:  fmt.Sprintf("Drive%03d", i+1),
			FileFolderName: "DL Features",
			FileName:       fmt.Sprintf("clip_%03d.mov", i+1),
		}
	}
	return items
}

// countingItems wraps an item repository to record how many queries a
// search issues.
type countingItems struct {
	repository.ItemRepository
	lists  int
	counts int
}

func (c *countingItems) List(ctx context.Context, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error) {
	c.lists++
	return c.ItemRepository.List(ctx, filter, limit, offset)
}

func (c *countingItems) Count(ctx context.Context, filter domain.ItemFilter) (int, error) {
	c.counts++
	return c.ItemRepository.Count(ctx, filter)
}

func TestSearchReturnsAllOnBlankSearch(t *testing.T) {
	engine, _ := newTestEngine(t, seedItems(10))

	page, err := engine.Search(context.Background(), Request{Page: 1})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.TotalCount != 10 {
		t.Errorf("expected 10 matches, got %d", page.TotalCount)
	}
	if len(page.Rows) != 10 {
		t.Errorf("expected 10 rows, got %d", len(page.Rows))
	}
	if page.PageSize != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, page.PageSize)
	}
}

func TestSearchFiltersBySubstringCaseInsensitive(t *testing.T) {
	engine, _ := newTestEngine(t, seedItems(30))

	page, err := engine.Search(context.Background(), Request{Search: "drive003", Page: 1})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected 1 match, got %d", page.TotalCount)
	}
	if got := page.Rows[0].Item.HardDriveName; got != "Drive003" {
		t.Errorf("expected Drive003, got %q", got)
	}
}

func TestSearchColumnRestriction(t *testing.T) {
	items := seedItems(2)
	items[0].Title = "needle"
	items[1].FileName = "needle.mov"
	engine, _ := newTestEngine(t, items)
	ctx := context.Background()

	// The default column set does not include title, so only the file name
	// match surfaces.
	page, err := engine.Search(ctx, Request{Search: "needle", Page: 1})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.TotalCount != 1 {
		t.Errorf("expected 1 match across searchable columns, got %d", page.TotalCount)
	}

	page, err = engine.Search(ctx, Request{Search: "needle", Column: "title", Page: 1})
	if err != nil {
		t.Fatalf("column search failed: %v", err)
	}
	if page.TotalCount != 1 || page.Rows[0].Item.Title != "needle" {
		t.Errorf("expected the title match, got %d rows", page.TotalCount)
	}
}

func TestSearchUnknownColumnRejected(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	if _, err := engine.Search(context.Background(), Request{Column: "no_such_column"}); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestSearchByStatusLabel(t *testing.T) {
	engine, store := newTestEngine(t, seedItems(3))
	ctx := context.Background()
	tag, err := store.Statuses().GetByLabel(ctx, domain.StatusInvalidVault)
	if err != nil {
		t.Fatalf("failed to look up status: %v", err)
	}
	if err := store.Statuses().AddItemStatus(ctx, 2, tag.ID); err != nil {
		t.Fatalf("failed to tag item: %v", err)
	}

	page, err := engine.Search(ctx, Request{Search: "invalid vault", Column: domain.StatusColumn, Page: 1})
	if err != nil {
		t.Fatalf("status search failed: %v", err)
	}
	if page.TotalCount != 1 || page.Rows[0].Item.ID != 2 {
		t.Fatalf("expected item 2 only, got %+v", page.Rows)
	}
	if !reflect.DeepEqual(page.Rows[0].Statuses, []string{domain.StatusInvalidVault}) {
		t.Errorf("expected resolved status labels, got %v", page.Rows[0].Statuses)
	}
}

func TestSearchPagesConcatenateToFullResult(t *testing.T) {
	engine, _ := newTestEngine(t, seedItems(60))
	ctx := context.Background()

	var seen []int64
	for pageNum := 1; ; pageNum++ {
		page, err := engine.Search(ctx, Request{Page: pageNum, PageSize: 25})
		if err != nil {
			t.Fatalf("page %d failed: %v", pageNum, err)
		}
		for _, row := range page.Rows {
			seen = append(seen, row.Item.ID)
		}
		if pageNum >= page.TotalPages {
			break
		}
	}

	if len(seen) != 60 {
		t.Fatalf("expected 60 ids across pages, got %d", len(seen))
	}
	for i, id := range seen {
		if id != int64(i+1) {
			t.Fatalf("expected ascending ids with no gaps, got %d at position %d", id, i)
		}
	}
}

func TestSearchClampsOutOfRangePages(t *testing.T) {
	engine, _ := newTestEngine(t, seedItems(30))
	ctx := context.Background()

	page, err := engine.Search(ctx, Request{Page: 99, PageSize: 25})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.Number != 2 {
		t.Errorf("expected clamp to last page 2, got %d", page.Number)
	}
	if len(page.Rows) != 5 {
		t.Errorf("expected 5 rows on last page, got %d", len(page.Rows))
	}

	page, err = engine.Search(ctx, Request{Page: -3, PageSize: 25})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.Number != 1 {
		t.Errorf("expected clamp to page 1, got %d", page.Number)
	}
}

func TestSearchIssuesOneQueryPerInRangePage(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, item := range seedItems(30) {
		if _, err := store.Items().Create(ctx, item); err != nil {
			t.Fatalf("failed to seed item: %v", err)
		}
	}
	items := &countingItems{ItemRepository: store.Items()}
	engine := NewEngine(items, store.Statuses(), store.Users())

	if _, err := engine.Search(ctx, Request{Page: 1, PageSize: 25}); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if items.lists != 1 || items.counts != 0 {
		t.Errorf("in-range page: expected 1 list and 0 counts, got %d and %d", items.lists, items.counts)
	}

	// Only a request past the last page needs a second fetch.
	items.lists, items.counts = 0, 0
	page, err := engine.Search(ctx, Request{Page: 99, PageSize: 25})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.Number != 2 || len(page.Rows) != 5 {
		t.Errorf("expected last page with 5 rows, got page %d with %d rows", page.Number, len(page.Rows))
	}
	if items.lists != 2 || items.counts != 0 {
		t.Errorf("clamped page: expected 2 lists and 0 counts, got %d and %d", items.lists, items.counts)
	}
}

func TestSearchEmptyResultYieldsOneEmptyPage(t *testing.T) {
	engine, _ := newTestEngine(t, seedItems(5))

	page, err := engine.Search(context.Background(), Request{Search: "zzz-no-match", Page: 1})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page.TotalPages != 1 || page.Number != 1 {
		t.Errorf("expected single empty page, got page %d of %d", page.Number, page.TotalPages)
	}
	if len(page.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(page.Rows))
	}
}

func TestNormalizePageSize(t *testing.T) {
	cases := map[int]int{0: 25, 25: 25, 50: 50, 100: 100, 250: 250, 33: 25, -1: 25, 1000: 25}
	for in, want := range cases {
		if got := NormalizePageSize(in); got != want {
			t.Errorf("NormalizePageSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestElidedPageRange(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"small range is whole", 2, 5, []int{1, 2, 3, 4, 5}},
		{"boundary count is whole", 6, 12, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"gap on the right", 1, 20, []int{1, 2, 3, 4, 5, 6, Gap, 20}},
		{"gap on both sides", 10, 20, []int{1, Gap, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, Gap, 20}},
		{"left gap of one page stays whole", 8, 20, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, Gap, 20}},
		{"right gap of one page stays whole", 13, 20, []int{1, Gap, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}},
		{"gap on the left", 20, 20, []int{1, Gap, 15, 16, 17, 18, 19, 20}},
	}
	for _, tt := range tests {
		got := ElidedPageRange(tt.current, tt.total, 5, 1)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: ElidedPageRange(%d, %d) = %v, want %v", tt.name, tt.current, tt.total, got, tt.want)
		}
	}
}
