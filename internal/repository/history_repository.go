package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a repository over the item audit trail.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Record(ctx context.Context, entries []domain.ChangeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := recordHistory(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history entries: %w", err)
	}
	return nil
}

func (r *historyRepository) ListByItem(ctx context.Context, itemID int64) ([]domain.ChangeEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, field, old_value, new_value, changed_by, changed_at
		   FROM item_history
		  WHERE item_id = $1
		  ORDER BY changed_at DESC, id DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list item history: %w", err)
	}
	defer rows.Close()

	entries := []domain.ChangeEntry{}
	for rows.Next() {
		var (
			entry     domain.ChangeEntry
			changedBy pgtype.Int8
			changedAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&entry.ID, &entry.ItemID, &entry.Field,
			&entry.OldValue, &entry.NewValue, &changedBy, &changedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if changedBy.Valid {
			v := changedBy.Int64
			entry.ChangedBy = &v
		}
		entry.ChangedAt = changedAt.Time
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
