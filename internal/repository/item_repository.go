package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

// itemRepository implements ItemRepository on pgxpool with hand-written SQL.
// The item field registry supplies the column list so the ~45 sheet columns
// are named in exactly one place.
type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new item repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

var itemSelectColumns = "id, row_index, " +
	strings.Join(domain.ItemColumns(), ", ") +
	", assigned_user_id, created_at, updated_at"

// scanDest builds the scan destination list matching itemSelectColumns.
func scanDest(item *domain.Item, assigned *pgtype.Int8, createdAt, updatedAt *pgtype.Timestamptz) []any {
	dest := make([]any, 0, len(domain.ItemFields)+4)
	dest = append(dest, &item.ID, &item.RowIndex)
	for _, f := range domain.ItemFields {
		dest = append(dest, f.Ptr(item))
	}
	return append(dest, assigned, createdAt, updatedAt)
}

func finishItem(item *domain.Item, assigned pgtype.Int8, createdAt, updatedAt pgtype.Timestamptz) {
	if assigned.Valid {
		id := assigned.Int64
		item.AssignedUserID = &id
	}
	item.CreatedAt = createdAt.Time
	item.UpdatedAt = updatedAt.Time
}

func scanItemRows(rows pgx.Rows) ([]domain.Item, error) {
	defer rows.Close()
	items := []domain.Item{}
	for rows.Next() {
		var (
			item      domain.Item
			assigned  pgtype.Int8
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(scanDest(&item, &assigned, &createdAt, &updatedAt)...); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		finishItem(&item, assigned, createdAt, updatedAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

// Create inserts one item and returns it with its assigned id.
func (r *itemRepository) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	columns := append([]string{"row_index"}, domain.ItemColumns()...)
	columns = append(columns, "assigned_user_id")

	placeholders := make([]string, len(columns))
	args := make([]any, 0, len(columns))
	args = append(args, item.RowIndex)
	for _, f := range domain.ItemFields {
		args = append(args, strings.TrimSpace(f.Get(&item)))
	}
	var assigned any
	if item.AssignedUserID != nil {
		assigned = *item.AssignedUserID
	}
	args = append(args, assigned)
	for i := range placeholders {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	query := fmt.Sprintf(
		"INSERT INTO items (%s) VALUES (%s) RETURNING %s",
		strings.Join(columns, ", "), strings.Join(placeholders, ", "), itemSelectColumns,
	)

	var (
		created    domain.Item
		assignedID pgtype.Int8
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	if err := r.pool.QueryRow(ctx, query, args...).Scan(scanDest(&created, &assignedID, &createdAt, &updatedAt)...); err != nil {
		return domain.Item{}, fmt.Errorf("failed to create item: %w", err)
	}
	finishItem(&created, assignedID, createdAt, updatedAt)
	return created, nil
}

// CreateBatch bulk-loads items with COPY in a single transaction.
func (r *itemRepository) CreateBatch(ctx context.Context, items []domain.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	columns := append([]string{"row_index"}, domain.ItemColumns()...)
	rows := make([][]any, len(items))
	for i := range items {
		row := make([]any, 0, len(columns))
		row = append(row, items[i].RowIndex)
		for _, f := range domain.ItemFields {
			row = append(row, strings.TrimSpace(f.Get(&items[i])))
		}
		rows[i] = row
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	count, err := tx.CopyFrom(ctx, pgx.Identifier{"items"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk load items: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit bulk load: %w", err)
	}
	return int(count), nil
}

// GetByID retrieves an item by id.
func (r *itemRepository) GetByID(ctx context.Context, id int64) (domain.Item, error) {
	query := fmt.Sprintf("SELECT %s FROM items WHERE id = $1", itemSelectColumns)

	var (
		item      domain.Item
		assigned  pgtype.Int8
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(scanDest(&item, &assigned, &createdAt, &updatedAt)...)
	if err == pgx.ErrNoRows {
		return domain.Item{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to get item: %w", err)
	}
	finishItem(&item, assigned, createdAt, updatedAt)
	return item, nil
}

// Update writes every field of the item, recording history entries for the
// fields that changed.
func (r *itemRepository) Update(ctx context.Context, item domain.Item, changedBy *int64) (domain.Item, error) {
	current, err := r.GetByID(ctx, item.ID)
	if err != nil {
		return domain.Item{}, err
	}

	changes := current.Changes(&item)
	if len(changes) == 0 {
		return current, nil
	}

	fields := make(map[string]string, len(changes))
	for _, change := range changes {
		fields[change.Field] = change.NewValue
	}
	if err := r.UpdateFields(ctx, item.ID, fields, changedBy); err != nil {
		return domain.Item{}, err
	}
	return r.GetByID(ctx, item.ID)
}

// UpdateFields sets the named columns on one item, skipping values that
// already match, and appends one history entry per changed field.
func (r *itemRepository) UpdateFields(ctx context.Context, id int64, fields map[string]string, changedBy *int64) error {
	if len(fields) == 0 {
		return nil
	}
	for column := range fields {
		if _, ok := domain.FieldByColumn(column); !ok {
			return fmt.Errorf("unknown item column %q", column)
		}
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	var (
		assignments []string
		args        []any
		entries     []domain.ChangeEntry
	)
	for column, value := range fields {
		before := current.FieldValue(column)
		if before == value {
			continue
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
		entries = append(entries, domain.ChangeEntry{
			ItemID:    id,
			Field:     column,
			OldValue:  before,
			NewValue:  value,
			ChangedBy: changedBy,
		})
	}
	if len(assignments) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE items SET %s, updated_at = now() WHERE id = $%d",
		strings.Join(assignments, ", "), len(args),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update item %d: %w", id, err)
	}
	if err := recordHistory(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit item update: %w", err)
	}
	return nil
}

// Delete removes the named items and returns the number deleted.
func (r *itemRepository) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM items WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete items: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// buildFilterClause renders the filter as a WHERE fragment. Status matching
// goes through the link table; every other column is a plain ILIKE.
func buildFilterClause(filter domain.ItemFilter) (string, []any, error) {
	term := strings.TrimSpace(filter.Search)
	if term == "" {
		return "", nil, nil
	}
	if filter.Column != "" && filter.Column != domain.StatusColumn {
		if _, ok := domain.FieldByColumn(filter.Column); !ok {
			return "", nil, fmt.Errorf("unknown search column %q", filter.Column)
		}
	}

	pattern := "%" + term + "%"
	var conditions []string
	for _, column := range filter.Columns() {
		if column == domain.StatusColumn {
			conditions = append(conditions,
				`EXISTS (SELECT 1 FROM item_status_links l
				   JOIN item_statuses s ON s.id = l.status_id
				  WHERE l.item_id = items.id AND s.label ILIKE $1)`)
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $1", column))
	}
	return " WHERE " + strings.Join(conditions, " OR "), []any{pattern}, nil
}

// List applies the filter ordered by id ascending so page boundaries stay
// deterministic, returning the page slice and the total match count.
func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter, limit, offset int) ([]domain.Item, int, error) {
	clause, args, err := buildFilterClause(filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM items%s ORDER BY id ASC", itemSelectColumns, clause)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	items, err := scanItemRows(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadStatusIDs(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Count returns the total match count for the filter.
func (r *itemRepository) Count(ctx context.Context, filter domain.ItemFilter) (int, error) {
	clause, args, err := buildFilterClause(filter)
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM items"+clause, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return total, nil
}

func (r *itemRepository) loadStatusIDs(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	index := make(map[int64]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
	}

	rows, err := r.pool.Query(ctx,
		"SELECT item_id, status_id FROM item_status_links WHERE item_id = ANY($1) ORDER BY status_id",
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load item statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var itemID, statusID int64
		if err := rows.Scan(&itemID, &statusID); err != nil {
			return fmt.Errorf("failed to scan item status link: %w", err)
		}
		i := index[itemID]
		items[i].StatusIDs = append(items[i].StatusIDs, statusID)
	}
	return rows.Err()
}

func (r *itemRepository) listWhere(ctx context.Context, clause string, args ...any) ([]domain.Item, error) {
	query := fmt.Sprintf("SELECT %s FROM items %s", itemSelectColumns, clause)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	return scanItemRows(rows)
}

// ListInImportOrder returns every item in original sheet order.
func (r *itemRepository) ListInImportOrder(ctx context.Context) ([]domain.Item, error) {
	return r.listWhere(ctx, "ORDER BY row_index ASC, id ASC")
}

// ListByNaturalKey matches items on the folder/sub-folder/file-name triple
// used to correlate external sheet rows with existing records.
func (r *itemRepository) ListByNaturalKey(ctx context.Context, fileFolder, subFolder, fileName string) ([]domain.Item, error) {
	return r.listWhere(ctx,
		"WHERE file_folder_name = $1 AND sub_folder_name = $2 AND file_name = $3 ORDER BY id ASC",
		fileFolder, subFolder, fileName,
	)
}

// ListCarrierCandidates returns items with a non-empty value in the given
// carrier column, in id order.
func (r *itemRepository) ListCarrierCandidates(ctx context.Context, carrierColumn string) ([]domain.Item, error) {
	if carrierColumn != "carrier_a" && carrierColumn != "carrier_b" {
		return nil, fmt.Errorf("unknown carrier column %q", carrierColumn)
	}
	return r.listWhere(ctx, fmt.Sprintf("WHERE %s <> '' ORDER BY id ASC", carrierColumn))
}

// ListMissingInventory returns items whose inventory number is blank or
// flagged invalid by an earlier import.
func (r *itemRepository) ListMissingInventory(ctx context.Context) ([]domain.Item, error) {
	return r.listWhere(ctx, "WHERE inventory_number = '' OR inventory_number ILIKE '%invalid%' ORDER BY id ASC")
}

// ListMissingLocations returns items with no location information at all.
func (r *itemRepository) ListMissingLocations(ctx context.Context) ([]domain.Item, error) {
	return r.listWhere(ctx,
		"WHERE hard_drive_location = '' AND carrier_a_location = '' AND carrier_b_location = '' ORDER BY id ASC")
}

// ListWithHardDrive returns items carrying a hard drive name.
func (r *itemRepository) ListWithHardDrive(ctx context.Context) ([]domain.Item, error) {
	return r.listWhere(ctx, "WHERE hard_drive_name <> '' ORDER BY id ASC")
}

// AssignUser atomically points every named item at the target user (nil
// unassigns). Unknown ids reject the whole operation with no state change.
func (r *itemRepository) AssignUser(ctx context.Context, ids []int64, userID *int64, changedBy *int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		"SELECT id, assigned_user_id FROM items WHERE id = ANY($1) FOR UPDATE", ids)
	if err != nil {
		return fmt.Errorf("failed to lock items: %w", err)
	}
	previous := make(map[int64]*int64)
	for rows.Next() {
		var (
			id       int64
			assigned pgtype.Int8
		)
		if err := rows.Scan(&id, &assigned); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan locked item: %w", err)
		}
		if assigned.Valid {
			v := assigned.Int64
			previous[id] = &v
		} else {
			previous[id] = nil
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read locked items: %w", err)
	}

	for _, id := range ids {
		if _, ok := previous[id]; !ok {
			return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
		}
	}

	var target any
	if userID != nil {
		target = *userID
	}
	if _, err := tx.Exec(ctx,
		"UPDATE items SET assigned_user_id = $1, updated_at = now() WHERE id = ANY($2)",
		target, ids,
	); err != nil {
		return fmt.Errorf("failed to assign items: %w", err)
	}

	var entries []domain.ChangeEntry
	for _, id := range ids {
		before := previous[id]
		if userIDEqual(before, userID) {
			continue
		}
		entries = append(entries, domain.ChangeEntry{
			ItemID:    id,
			Field:     "assigned_user_id",
			OldValue:  formatUserID(before),
			NewValue:  formatUserID(userID),
			ChangedBy: changedBy,
		})
	}
	if err := recordHistory(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assignment: %w", err)
	}
	return nil
}

func userIDEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func formatUserID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

// recordHistory appends audit entries within the caller's transaction.
func recordHistory(ctx context.Context, tx pgx.Tx, entries []domain.ChangeEntry) error {
	for _, entry := range entries {
		var changedBy any
		if entry.ChangedBy != nil {
			changedBy = *entry.ChangedBy
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO item_history (item_id, field, old_value, new_value, changed_by)
			 VALUES ($1, $2, $3, $4, $5)`,
			entry.ItemID, entry.Field, entry.OldValue, entry.NewValue, changedBy,
		); err != nil {
			return fmt.Errorf("failed to record history for item %d: %w", entry.ItemID, err)
		}
	}
	return nil
}
