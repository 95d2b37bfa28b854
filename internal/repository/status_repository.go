package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository creates a new status tag repository.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) List(ctx context.Context) ([]domain.StatusTag, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, label FROM item_statuses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	tags := []domain.StatusTag{}
	for rows.Next() {
		var tag domain.StatusTag
		if err := rows.Scan(&tag.ID, &tag.Label); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *statusRepository) GetByLabel(ctx context.Context, label string) (domain.StatusTag, error) {
	var tag domain.StatusTag
	err := r.pool.QueryRow(ctx,
		"SELECT id, label FROM item_statuses WHERE label = $1", label,
	).Scan(&tag.ID, &tag.Label)
	if err == pgx.ErrNoRows {
		return domain.StatusTag{}, fmt.Errorf("status %q: %w", label, domain.ErrNotFound)
	}
	if err != nil {
		return domain.StatusTag{}, fmt.Errorf("failed to get status: %w", err)
	}
	return tag, nil
}

func (r *statusRepository) StatusesForItems(ctx context.Context, itemIDs []int64) (map[int64][]domain.StatusTag, error) {
	result := make(map[int64][]domain.StatusTag, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.item_id, s.id, s.label
		   FROM item_status_links l
		   JOIN item_statuses s ON s.id = l.status_id
		  WHERE l.item_id = ANY($1)
		  ORDER BY l.item_id, s.id`,
		itemIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load item statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			itemID int64
			tag    domain.StatusTag
		)
		if err := rows.Scan(&itemID, &tag.ID, &tag.Label); err != nil {
			return nil, fmt.Errorf("failed to scan item status: %w", err)
		}
		result[itemID] = append(result[itemID], tag)
	}
	return result, rows.Err()
}

// SetItemStatuses replaces the item's status links with the given set.
func (r *statusRepository) SetItemStatuses(ctx context.Context, itemID int64, statusIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM item_status_links WHERE item_id = $1", itemID); err != nil {
		return fmt.Errorf("failed to clear item statuses: %w", err)
	}
	for _, statusID := range statusIDs {
		if _, err := tx.Exec(ctx,
			"INSERT INTO item_status_links (item_id, status_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			itemID, statusID,
		); err != nil {
			return fmt.Errorf("failed to set item status: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

func (r *statusRepository) AddItemStatus(ctx context.Context, itemID, statusID int64) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO item_status_links (item_id, status_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		itemID, statusID,
	)
	if err != nil {
		return fmt.Errorf("failed to add item status: %w", err)
	}
	return nil
}

func (r *statusRepository) RemoveItemStatus(ctx context.Context, itemID, statusID int64) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM item_status_links WHERE item_id = $1 AND status_id = $2",
		itemID, statusID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove item status: %w", err)
	}
	return nil
}
