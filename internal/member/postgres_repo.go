package member

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/entity"
	"libraryapi/internal/store"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, u *entity.User) error {
	const query = `
		INSERT INTO users (id, email, username, password_hash, role, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, u.Email, u.Username, u.Password, u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, "") {
			return entity.NewValidation("email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, email, username, password_hash, role, created_at, updated_at`

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (entity.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) scanUser(row interface{ Scan(dest ...any) error }) (entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return entity.User{}, store.MapNotFound(err)
	}
	return u, nil
}
