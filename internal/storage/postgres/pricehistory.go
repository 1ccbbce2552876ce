package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"garimpeiro/internal/contracts"
)

// PriceHistoryRepository implements contracts.PriceHistoryStore on PostgreSQL.
// Append-only: every run adds a new observation, nothing is updated or deleted.
type PriceHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(pool *pgxpool.Pool) *PriceHistoryRepository {
	return &PriceHistoryRepository{pool: pool}
}

// Append inserts one price observation.
func (r *PriceHistoryRepository) Append(ctx context.Context, entry contracts.PriceHistoryEntry) error {
	query := `
		INSERT INTO price_history (
			product_id, collection_date, current_price, original_price,
			discount_pct, score, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ProductID,
		entry.CollectionDate,
		entry.CurrentPrice,
		entry.OriginalPrice,
		entry.DiscountPct,
		entry.Score,
	)
	if err != nil {
		return contracts.NewPersistenceError("append price history", strconv.FormatInt(entry.ProductID, 10), err)
	}

	return nil
}

// ListByProduct returns a product's observations, newest first.
func (r *PriceHistoryRepository) ListByProduct(ctx context.Context, productID int64, limit int) ([]contracts.PriceHistoryEntry, error) {
	query := `
		SELECT id, product_id, collection_date, current_price, original_price,
			discount_pct, score, created_at
		FROM price_history
		WHERE product_id = $1
		ORDER BY collection_date DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var entries []contracts.PriceHistoryEntry
	for rows.Next() {
		var entry contracts.PriceHistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.ProductID,
			&entry.CollectionDate,
			&entry.CurrentPrice,
			&entry.OriginalPrice,
			&entry.DiscountPct,
			&entry.Score,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}
