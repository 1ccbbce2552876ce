package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"garimpeiro/internal/contracts"
)

// ProductRepository implements contracts.ProductStore on PostgreSQL.
// Conflict resolution key is (marketplace, external_id): re-ingesting the same
// marketplace item on a later run updates its mutable fields in place.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new product repository
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Upsert inserts or updates a product and returns the persisted row.
func (r *ProductRepository) Upsert(ctx context.Context, p contracts.EnrichedProduct) (*contracts.Product, error) {
	query := `
		INSERT INTO products (
			marketplace, external_id, title, image_url, url,
			affiliate_link, niche, rating, score, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (marketplace, external_id) DO UPDATE SET
			title          = EXCLUDED.title,
			image_url      = EXCLUDED.image_url,
			url            = EXCLUDED.url,
			affiliate_link = EXCLUDED.affiliate_link,
			niche          = EXCLUDED.niche,
			rating         = EXCLUDED.rating,
			score          = EXCLUDED.score,
			updated_at     = now()
		RETURNING id, marketplace, external_id, title, image_url, url,
			affiliate_link, niche, rating, score, created_at, updated_at
	`

	var product contracts.Product
	err := r.pool.QueryRow(ctx, query,
		p.Marketplace,
		p.ExternalID,
		p.Title,
		p.Thumbnail,
		p.Permalink,
		p.AffiliateLink,
		p.Niche,
		p.Rating,
		int(math.Round(p.Score)),
	).Scan(
		&product.ID,
		&product.Marketplace,
		&product.ExternalID,
		&product.Title,
		&product.ImageURL,
		&product.URL,
		&product.AffiliateLink,
		&product.Niche,
		&product.Rating,
		&product.Score,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		key := fmt.Sprintf("(%s, %s)", p.Marketplace, p.ExternalID)
		return nil, contracts.NewPersistenceError("upsert product", key, err)
	}

	return &product, nil
}

// GetByID returns a single product.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*contracts.Product, error) {
	query := `
		SELECT id, marketplace, external_id, title, image_url, url,
			affiliate_link, niche, rating, score, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product contracts.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Marketplace,
		&product.ExternalID,
		&product.Title,
		&product.ImageURL,
		&product.URL,
		&product.AffiliateLink,
		&product.Niche,
		&product.Rating,
		&product.Score,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	return &product, nil
}

// ListByNiche returns products for a niche ordered by score descending.
func (r *ProductRepository) ListByNiche(ctx context.Context, niche string, limit int) ([]contracts.Product, error) {
	query := `
		SELECT id, marketplace, external_id, title, image_url, url,
			affiliate_link, niche, rating, score, created_at, updated_at
		FROM products
		WHERE niche = $1
		ORDER BY score DESC, updated_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, niche, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by niche: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListTopUpdatedSince returns the highest-scored products touched since the
// given time. Used by the social posting flow to pick today's deals.
func (r *ProductRepository) ListTopUpdatedSince(ctx context.Context, since time.Time, limit int) ([]contracts.Product, error) {
	query := `
		SELECT id, marketplace, external_id, title, image_url, url,
			affiliate_link, niche, rating, score, created_at, updated_at
		FROM products
		WHERE updated_at >= $1
		ORDER BY score DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Niches returns the distinct niches present in the store.
func (r *ProductRepository) Niches(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT niche FROM products ORDER BY niche`)
	if err != nil {
		return nil, fmt.Errorf("failed to query niches: %w", err)
	}
	defer rows.Close()

	var niches []string
	for rows.Next() {
		var niche string
		if err := rows.Scan(&niche); err != nil {
			return nil, fmt.Errorf("failed to scan niche: %w", err)
		}
		niches = append(niches, niche)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return niches, nil
}

func scanProducts(rows pgx.Rows) ([]contracts.Product, error) {
	var products []contracts.Product
	for rows.Next() {
		var product contracts.Product
		err := rows.Scan(
			&product.ID,
			&product.Marketplace,
			&product.ExternalID,
			&product.Title,
			&product.ImageURL,
			&product.URL,
			&product.AffiliateLink,
			&product.Niche,
			&product.Rating,
			&product.Score,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}
