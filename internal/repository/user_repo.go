package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"papaya-users/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
// Todas las lecturas excluyen registros con is_deleted = true.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
	CountNotDeleted(ctx context.Context) (int, error)
	PageNotDeleted(ctx context.Context, offset, limit int) ([]domain.User, error)
}

const uniqueViolation = "23505"

// DB es el subconjunto de pgxpool.Pool que usa el repositorio.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgUserRepository implementa UserRepository sobre Postgres.
type PgUserRepository struct {
	pool DB
}

func NewPgUserRepository(pool DB) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, avatar, is_deleted, created_at, updated_at`

// Insert depende del indice unico parcial users_email_active_key para
// rechazar emails duplicados entre registros activos.
func (r *PgUserRepository) Insert(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Avatar,
		user.IsDeleted,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND NOT is_deleted
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND NOT is_deleted
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

// Update solo toca registros activos; un registro ya eliminado da ErrNotFound.
func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, avatar = $4, is_deleted = $5, updated_at = $6
		WHERE id = $1 AND NOT is_deleted
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Avatar,
		user.IsDeleted,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) CountNotDeleted(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE NOT is_deleted`
	var total int
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (r *PgUserRepository) PageNotDeleted(ctx context.Context, offset, limit int) ([]domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE NOT is_deleted
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("page users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("page users: %w", err)
	}
	return users, nil
}

func (r *PgUserRepository) scanOne(row pgx.Row) (domain.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Avatar,
		&u.IsDeleted,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

var _ UserRepository = (*PgUserRepository)(nil)
