package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Search results"

// Service streams filtered item exports as XLSX workbooks. Rows are fetched
// in repository pages and written through excelize's stream writer, so the
// full result set never sits in memory at once.
type Service struct {
	items    repository.ItemRepository
	statuses repository.StatusRepository
	users    repository.UserRepository

	pageSize int
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPageSize overrides the repository fetch size.
func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// NewService creates an export service.
func NewService(items repository.ItemRepository, statuses repository.StatusRepository, users repository.UserRepository, opts ...Option) *Service {
	service := &Service{
		items:    items,
		statuses: statuses,
		users:    users,
		pageSize: 1000,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Filename returns the timestamped download name for an export started now.
func (s *Service) Filename() string {
	return fmt.Sprintf("ftva_dl_search_results_%s.xlsx", s.now().Format("20060102_150405"))
}

// exportFields orders the item columns for export: the display columns
// first, then the remaining registry fields in sheet order.
func exportFields() []domain.ItemField {
	display := make(map[string]bool, len(domain.DisplayColumns))
	fields := make([]domain.ItemField, 0, len(domain.ItemFields))
	for _, c := range domain.DisplayColumns {
		if f, ok := domain.FieldByColumn(c.Column); ok {
			fields = append(fields, f)
			display[c.Column] = true
		}
	}
	for _, f := range domain.ItemFields {
		if !display[f.Column] {
			fields = append(fields, f)
		}
	}
	return fields
}

// Export writes every item matching the filter to w as an XLSX workbook,
// ignoring pagination, and returns the number of data rows written.
func (s *Service) Export(ctx context.Context, filter domain.ItemFilter, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return 0, fmt.Errorf("failed to prepare workbook: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to open stream writer: %w", err)
	}

	fields := exportFields()
	header := make([]interface{}, 0, len(fields)+2)
	for _, field := range fields {
		header = append(header, field.Label)
	}
	header = append(header, "Assigned to", "Status")
	if err := sw.SetRow("A1", header); err != nil {
		return 0, fmt.Errorf("failed to write header row: %w", err)
	}

	names, err := s.userNames(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for offset := 0; ; offset += s.pageSize {
		items, _, err := s.items.List(ctx, filter, s.pageSize, offset)
		if err != nil {
			return written, fmt.Errorf("failed to fetch export page: %w", err)
		}
		if len(items) == 0 {
			break
		}

		ids := make([]int64, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		statuses, err := s.statuses.StatusesForItems(ctx, ids)
		if err != nil {
			return written, fmt.Errorf("failed to resolve statuses: %w", err)
		}

		for i := range items {
			item := &items[i]
			row := make([]interface{}, 0, len(fields)+2)
			for _, field := range fields {
				row = append(row, field.Get(item))
			}
			row = append(row, assignedName(item, names), statusLabels(statuses[item.ID]))

			cell, err := excelize.CoordinatesToCellName(1, written+2)
			if err != nil {
				return written, fmt.Errorf("bad cell coordinates: %w", err)
			}
			if err := sw.SetRow(cell, row); err != nil {
				return written, fmt.Errorf("failed to write row: %w", err)
			}
			written++
		}

		if len(items) < s.pageSize {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := f.Write(w); err != nil {
		return written, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return written, nil
}

func (s *Service) userNames(ctx context.Context) (map[int64]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	names := make(map[int64]string, len(users))
	for _, user := range users {
		names[user.ID] = user.DisplayName()
	}
	return names, nil
}

func assignedName(item *domain.Item, names map[int64]string) string {
	if item.AssignedUserID == nil {
		return ""
	}
	return names[*item.AssignedUserID]
}

func statusLabels(tags []domain.StatusTag) string {
	labels := make([]string, len(tags))
	for i, tag := range tags {
		labels[i] = tag.Label
	}
	return strings.Join(labels, ", ")
}
