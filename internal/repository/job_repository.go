package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garage-kit/shop-service/internal/domain"
)

// JobFilter captures staff search parameters.
type JobFilter struct {
	CustomerID   *string
	TechnicianID *string
	VehicleID    *string
	Statuses     []domain.JobStatus
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// JobRepository is the work ledger: service job persistence plus the
// active-job count the role policy depends on.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ServiceJob) error
	Update(ctx context.Context, job *domain.ServiceJob) error
	GetByID(ctx context.Context, id string) (*domain.ServiceJob, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.ServiceJob, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.ServiceJob, error)
	ListWithFilter(ctx context.Context, filter JobFilter) ([]domain.ServiceJob, error)
	CountActiveForTechnician(ctx context.Context, technicianID string, statuses []domain.JobStatus) (int, error)
}

const jobColumns = `
        id, external_key, vehicle_id, customer_user_id, technician_user_id,
        title, description, status, created_at, updated_at, closed_at`

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository instantiates the repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.ServiceJob) error {
	const query = `
        INSERT INTO service_jobs (external_key, vehicle_id, customer_user_id, technician_user_id, title, description, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		job.ExternalKey,
		job.VehicleID,
		job.CustomerID,
		job.TechnicianID,
		job.Title,
		job.Description,
		job.Status,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (r *jobRepository) Update(ctx context.Context, job *domain.ServiceJob) error {
	const query = `
        UPDATE service_jobs SET technician_user_id=$1, title=$2, description=$3,
            status=$4, closed_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		job.TechnicianID,
		job.Title,
		job.Description,
		job.Status,
		job.ClosedAt,
		job.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (*domain.ServiceJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_jobs WHERE id=$1`, jobColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *jobRepository) GetByExternalKey(ctx context.Context, key string) (*domain.ServiceJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_jobs WHERE external_key=$1`, jobColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *jobRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceJob, error) {
	var job domain.ServiceJob
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&job.ID,
		&job.ExternalKey,
		&job.VehicleID,
		&job.CustomerID,
		&job.TechnicianID,
		&job.Title,
		&job.Description,
		&job.Status,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.ServiceJob, error) {
	return r.ListWithFilter(ctx, JobFilter{
		CustomerID: &customerID,
		Limit:      limit,
		Offset:     offset,
	})
}

func (r *jobRepository) ListWithFilter(ctx context.Context, filter JobFilter) ([]domain.ServiceJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM service_jobs`, jobColumns)
	args := []any{}
	clauses := []string{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_user_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("technician_user_id=$%d", len(args)))
	}
	if filter.VehicleID != nil {
		args = append(args, *filter.VehicleID)
		clauses = append(clauses, fmt.Sprintf("vehicle_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		args = append(args, "%"+*filter.SearchTerm+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
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

	var result []domain.ServiceJob
	for rows.Next() {
		var job domain.ServiceJob
		if err := rows.Scan(
			&job.ID,
			&job.ExternalKey,
			&job.VehicleID,
			&job.CustomerID,
			&job.TechnicianID,
			&job.Title,
			&job.Description,
			&job.Status,
			&job.CreatedAt,
			&job.UpdatedAt,
			&job.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

func (r *jobRepository) CountActiveForTechnician(ctx context.Context, technicianID string, statuses []domain.JobStatus) (int, error) {
	const query = `
        SELECT COUNT(*) FROM service_jobs
        WHERE technician_user_id=$1 AND status = ANY($2)`

	var count int
	if err := r.pool.QueryRow(ctx, query, technicianID, statusStrings(statuses)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func statusStrings(statuses []domain.JobStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
