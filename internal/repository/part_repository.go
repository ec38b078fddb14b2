package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garage-kit/shop-service/internal/domain"
)

// ErrInsufficientStock is returned when a stock decrement would go negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// PartFilter defines query params for part listing.
type PartFilter struct {
	CategoryID *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// PartRepository handles persistence for inventory parts.
type PartRepository interface {
	Create(ctx context.Context, part *domain.Part) error
	Update(ctx context.Context, part *domain.Part) error
	GetByID(ctx context.Context, id string) (*domain.Part, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Part, error)
	List(ctx context.Context, filter PartFilter) ([]domain.Part, error)
	// AdjustStock atomically applies a delta, failing instead of letting
	// stock go negative.
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Part, error)
}

const partColumns = `id, category_id, name, sku, unit_price_cents, stock_qty, created_at, updated_at`

type partRepository struct {
	pool *pgxpool.Pool
}

// NewPartRepository instantiates the repository.
func NewPartRepository(pool *pgxpool.Pool) PartRepository {
	return &partRepository{pool: pool}
}

func (r *partRepository) Create(ctx context.Context, part *domain.Part) error {
	const query = `
        INSERT INTO parts (category_id, name, sku, unit_price_cents, stock_qty)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		part.CategoryID,
		part.Name,
		part.SKU,
		part.UnitPriceCents,
		part.StockQty,
	).Scan(&part.ID, &part.CreatedAt, &part.UpdatedAt)
}

func (r *partRepository) Update(ctx context.Context, part *domain.Part) error {
	const query = `
        UPDATE parts SET category_id=$1, name=$2, sku=$3, unit_price_cents=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		part.CategoryID,
		part.Name,
		part.SKU,
		part.UnitPriceCents,
		part.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *partRepository) GetByID(ctx context.Context, id string) (*domain.Part, error) {
	query := fmt.Sprintf(`SELECT %s FROM parts WHERE id=$1`, partColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *partRepository) GetBySKU(ctx context.Context, sku string) (*domain.Part, error) {
	query := fmt.Sprintf(`SELECT %s FROM parts WHERE sku=$1`, partColumns)
	return r.fetchSingle(ctx, query, sku)
}

func (r *partRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Part, error) {
	var part domain.Part
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&part.ID,
		&part.CategoryID,
		&part.Name,
		&part.SKU,
		&part.UnitPriceCents,
		&part.StockQty,
		&part.CreatedAt,
		&part.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *partRepository) List(ctx context.Context, filter PartFilter) ([]domain.Part, error) {
	query := fmt.Sprintf(`SELECT %s FROM parts`, partColumns)
	args := []any{}
	clauses := []string{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		args = append(args, "%"+*filter.SearchTerm+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY name"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Part
	for rows.Next() {
		var part domain.Part
		if err := rows.Scan(
			&part.ID,
			&part.CategoryID,
			&part.Name,
			&part.SKU,
			&part.UnitPriceCents,
			&part.StockQty,
			&part.CreatedAt,
			&part.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, part)
	}
	return result, rows.Err()
}

func (r *partRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Part, error) {
	query := fmt.Sprintf(`
        UPDATE parts SET stock_qty = stock_qty + $1, updated_at=NOW()
        WHERE id=$2 AND stock_qty + $1 >= 0
        RETURNING %s`, partColumns)

	var part domain.Part
	if err := r.pool.QueryRow(ctx, query, delta, id).Scan(
		&part.ID,
		&part.CategoryID,
		&part.Name,
		&part.SKU,
		&part.UnitPriceCents,
		&part.StockQty,
		&part.CreatedAt,
		&part.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row exists but guard failed, or id unknown. Distinguish.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, ErrInsufficientStock
			}
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return &part, nil
}
