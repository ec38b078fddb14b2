package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garage-kit/shop-service/internal/domain"
)

// InvoiceRepository handles billing persistence.
type InvoiceRepository interface {
	// CreateWithLines inserts the invoice, its lines, and the matching
	// part stock decrements in one transaction.
	CreateWithLines(ctx context.Context, invoice *domain.Invoice) error
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByJobID(ctx context.Context, jobID string) (*domain.Invoice, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error)
}

type invoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository instantiates the repository.
func NewInvoiceRepository(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepository{pool: pool}
}

func (r *invoiceRepository) CreateWithLines(ctx context.Context, invoice *domain.Invoice) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertInvoice = `
        INSERT INTO invoices (job_id, customer_user_id, status, total_cents)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertInvoice,
		invoice.JobID,
		invoice.CustomerID,
		invoice.Status,
		invoice.TotalCents,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
		return err
	}

	const insertLine = `
        INSERT INTO invoice_lines (invoice_id, line_type, part_id, description, quantity, amount_cents)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	const decrementStock = `
        UPDATE parts SET stock_qty = stock_qty - $1, updated_at=NOW()
        WHERE id=$2 AND stock_qty >= $1`

	for i := range invoice.Lines {
		line := &invoice.Lines[i]
		line.InvoiceID = invoice.ID
		if err := tx.QueryRow(ctx, insertLine,
			line.InvoiceID,
			line.LineType,
			line.PartID,
			line.Description,
			line.Quantity,
			line.AmountCents,
		).Scan(&line.ID); err != nil {
			return err
		}
		if line.LineType == domain.InvoiceLinePart && line.PartID != nil {
			cmd, err := tx.Exec(ctx, decrementStock, line.Quantity, *line.PartID)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				return ErrInsufficientStock
			}
		}
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error {
	const query = `UPDATE invoices SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	const query = `
        SELECT id, job_id, customer_user_id, status, total_cents, created_at, updated_at
        FROM invoices WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *invoiceRepository) GetByJobID(ctx context.Context, jobID string) (*domain.Invoice, error) {
	const query = `
        SELECT id, job_id, customer_user_id, status, total_cents, created_at, updated_at
        FROM invoices WHERE job_id=$1`
	return r.fetchSingle(ctx, query, jobID)
}

func (r *invoiceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&invoice.ID,
		&invoice.JobID,
		&invoice.CustomerID,
		&invoice.Status,
		&invoice.TotalCents,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := r.loadLines(ctx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) loadLines(ctx context.Context, invoice *domain.Invoice) error {
	const query = `
        SELECT id, invoice_id, line_type, part_id, description, quantity, amount_cents
        FROM invoice_lines WHERE invoice_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, invoice.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.InvoiceLine
		if err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&line.LineType,
			&line.PartID,
			&line.Description,
			&line.Quantity,
			&line.AmountCents,
		); err != nil {
			return err
		}
		invoice.Lines = append(invoice.Lines, line)
	}
	return rows.Err()
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, job_id, customer_user_id, status, total_cents, created_at, updated_at
        FROM invoices WHERE customer_user_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Invoice
	for rows.Next() {
		var invoice domain.Invoice
		if err := rows.Scan(
			&invoice.ID,
			&invoice.JobID,
			&invoice.CustomerID,
			&invoice.Status,
			&invoice.TotalCents,
			&invoice.CreatedAt,
			&invoice.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, invoice)
	}
	return result, rows.Err()
}
