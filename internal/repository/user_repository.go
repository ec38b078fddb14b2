package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garage-kit/shop-service/internal/domain"
)

// ErrAdminRoleTaken is returned when a role replacement collides with the
// single-admin unique index at commit time.
var ErrAdminRoleTaken = errors.New("admin role already held")

const pgUniqueViolation = "23505"

// UserRepository is the identity store: user records plus role memberships.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User, role domain.Role) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	RolesOf(ctx context.Context, userID string) ([]domain.Role, error)
	ListInRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	// ReplaceRole removes every membership of the user and grants the new
	// role inside a single transaction, so no role-less intermediate state
	// is ever visible.
	ReplaceRole(ctx context.Context, userID string, role domain.Role) error
}

const userColumns = `
        u.id, u.name, u.email, u.password_hash,
        (SELECT ur.role FROM user_roles ur WHERE ur.user_id = u.id ORDER BY ur.granted_at, ur.role LIMIT 1),
        u.active_flag, u.created_at, u.updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User, role domain.Role) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertUser = `
        INSERT INTO users (name, email, password_hash, active_flag)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertUser,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return err
	}

	const insertRole = `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insertRole, user.ID, role); err != nil {
		return mapRoleInsertError(err)
	}
	user.Role = &role

	return tx.Commit(ctx)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, active_flag=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Active,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.id=$1`, userColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE u.email=$1`, userColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) RolesOf(ctx context.Context, userID string) ([]domain.Role, error) {
	const query = `SELECT role FROM user_roles WHERE user_id=$1 ORDER BY granted_at, role`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *userRepository) ListInRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM users u
        JOIN user_roles ur ON ur.user_id = u.id
        WHERE ur.role=$1
        ORDER BY u.created_at`, userColumns)

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) ReplaceRole(ctx context.Context, userID string, role domain.Role) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, role); err != nil {
		return mapRoleInsertError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapRoleInsertError(err)
	}
	return nil
}

func mapRoleInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "user_roles_single_admin" {
		return ErrAdminRoleTaken
	}
	return err
}
