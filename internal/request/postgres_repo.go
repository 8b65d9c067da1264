package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
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

const requestColumns = `id, user_id, book_id, status, notes, rejection_reason, requested_at, due_date, created_at, updated_at`

func scanRequest(row pgx.Row) (entity.BorrowRequest, error) {
	var r entity.BorrowRequest
	err := row.Scan(&r.ID, &r.UserID, &r.BookID, &r.Status, &r.Notes, &r.RejectionReason,
		&r.RequestedAt, &r.DueDate, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (repo *PostgresRepo) Create(ctx context.Context, r entity.BorrowRequest) error {
	const insertSQL = `
		INSERT INTO borrow_requests (id, user_id, book_id, status, notes, rejection_reason, requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, $7, $8)`

	_, err := repo.db.Exec(ctx, insertSQL,
		r.ID, r.UserID, r.BookID, r.Status, r.Notes, r.RequestedAt, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		// partial unique index backstops the service-level duplicate check
		if store.IsUniqueViolation(err, "borrow_requests_one_open_per_book") {
			return entity.ErrDuplicateRequest
		}
		return fmt.Errorf("insert borrow request: %w", err)
	}
	return nil
}

func (repo *PostgresRepo) Get(ctx context.Context, id string) (entity.BorrowRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM borrow_requests WHERE id = $1`
	r, err := scanRequest(repo.db.QueryRow(ctx, query, id))
	if err != nil {
		return entity.BorrowRequest{}, store.MapNotFound(err)
	}
	return r, nil
}

func (repo *PostgresRepo) HasOpenForBook(ctx context.Context, userID, bookID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_requests
			WHERE user_id = $1 AND book_id = $2 AND status IN ('PENDING', 'APPROVED')
		)`
	var open bool
	err := repo.db.QueryRow(ctx, query, userID, bookID).Scan(&open)
	return open, err
}

// Transition applies from->to guarded on the current status; a stale guard
// distinguishes "no such request" from "wrong state".
func (repo *PostgresRepo) Transition(ctx context.Context, id string, from, to entity.RequestStatus, set Fields) (entity.BorrowRequest, error) {
	const updateSQL = `
		UPDATE borrow_requests
		SET status = $3,
		    rejection_reason = COALESCE($4, rejection_reason),
		    due_date = COALESCE($5, due_date),
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + requestColumns

	r, err := scanRequest(repo.db.QueryRow(ctx, updateSQL, id, from, to, set.RejectionReason, set.DueDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := repo.Get(ctx, id); getErr != nil {
				return entity.BorrowRequest{}, getErr
			}
			return entity.BorrowRequest{}, entity.ErrInvalidState
		}
		return entity.BorrowRequest{}, fmt.Errorf("transition borrow request: %w", err)
	}
	return r, nil
}

func (repo *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]entity.BorrowRequest, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM borrow_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC`
	return repo.list(ctx, query, userID)
}

func (repo *PostgresRepo) ListByStatus(ctx context.Context, status entity.RequestStatus) ([]entity.BorrowRequest, error) {
	const query = `
		SELECT ` + requestColumns + `
		FROM borrow_requests
		WHERE status = $1
		ORDER BY requested_at ASC`
	return repo.list(ctx, query, status)
}

func (repo *PostgresRepo) list(ctx context.Context, query string, arg any) ([]entity.BorrowRequest, error) {
	rows, err := repo.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.BorrowRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
