package circulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"libraryapi/internal/entity"
	"libraryapi/internal/inventory"
	"libraryapi/internal/store"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const txColumns = `id, user_id, book_id, copy_id, status, issue_date, due_date, return_date, renewal_count, fine_amount, fine_paid, home_delivery, created_at, updated_at`

func scanTransaction(row pgx.Row) (entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.BookID, &t.CopyID, &t.Status, &t.IssueDate, &t.DueDate,
		&t.ReturnDate, &t.RenewalCount, &t.FineAmount, &t.FinePaid, &t.HomeDelivery, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateLoan runs copy allocation and the loan insert in one transaction.
func (r *PostgresRepo) CreateLoan(ctx context.Context, p CreateLoanParams) (entity.Transaction, error) {
	var out entity.Transaction
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		c, err := inventory.AllocateTx(ctx, tx, p.BookID, p.PreferredCopyID)
		if err != nil {
			return err
		}

		const insertSQL = `
			INSERT INTO transactions (id, user_id, book_id, copy_id, status, issue_date, due_date, renewal_count, fine_amount, fine_paid, home_delivery, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'ISSUED', $5, $6, 0, 0, FALSE, $7, now(), now())
			RETURNING ` + txColumns

		out, err = scanTransaction(tx.QueryRow(ctx, insertSQL,
			uuid.NewString(), p.UserID, p.BookID, c.ID, p.IssueDate, p.DueDate, p.HomeDelivery))
		if err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return entity.Transaction{}, err
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (entity.Transaction, error) {
	const query = `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return entity.Transaction{}, store.MapNotFound(err)
	}
	return t, nil
}

// Renew is a single guarded statement so two concurrent renewals cannot both
// pass the counter check.
func (r *PostgresRepo) Renew(ctx context.Context, id string, renewalDays, maxRenewals int) (entity.Transaction, error) {
	const renewSQL = `
		UPDATE transactions
		SET status = 'RENEWED',
		    due_date = due_date + ($2 * interval '1 day'),
		    renewal_count = renewal_count + 1,
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('ISSUED', 'OVERDUE', 'RENEWED')
		  AND renewal_count < $3
		RETURNING ` + txColumns

	t, err := scanTransaction(r.db.QueryRow(ctx, renewSQL, id, renewalDays, maxRenewals))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Transaction{}, r.explainRenewFailure(ctx, id, maxRenewals)
		}
		return entity.Transaction{}, fmt.Errorf("renew loan: %w", err)
	}
	return t, nil
}

func (r *PostgresRepo) explainRenewFailure(ctx context.Context, id string, maxRenewals int) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == entity.TransactionReturned {
		return entity.ErrInvalidState
	}
	if current.RenewalCount >= maxRenewals {
		return entity.ErrRenewalLimit
	}
	return entity.ErrInvalidState
}

// Close stamps the loan RETURNED and releases its copy in one transaction.
func (r *PostgresRepo) Close(ctx context.Context, id string, returnedAt time.Time, fineAmount decimal.Decimal, releaseStatus entity.CopyStatus) (entity.Transaction, error) {
	var out entity.Transaction
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		const closeSQL = `
			UPDATE transactions
			SET status = 'RETURNED', return_date = $2, fine_amount = $3, updated_at = now()
			WHERE id = $1 AND status IN ('ISSUED', 'OVERDUE', 'RENEWED')
			RETURNING ` + txColumns

		var err error
		out, err = scanTransaction(tx.QueryRow(ctx, closeSQL, id, returnedAt, fineAmount))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				if _, getErr := r.Get(ctx, id); getErr != nil {
					return getErr
				}
				return entity.ErrInvalidState
			}
			return fmt.Errorf("close loan: %w", err)
		}

		_, err = inventory.ReleaseTx(ctx, tx, out.CopyID, releaseStatus)
		return err
	})
	if err != nil {
		return entity.Transaction{}, err
	}
	return out, nil
}

// MarkOverdue only touches rows still ISSUED/RENEWED at update time, so a
// return that won the race is never re-flagged.
func (r *PostgresRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]entity.Transaction, error) {
	const sweepSQL = `
		UPDATE transactions
		SET status = 'OVERDUE', updated_at = now()
		WHERE status IN ('ISSUED', 'RENEWED') AND due_date < $1
		RETURNING ` + txColumns

	rows, err := r.db.Query(ctx, sweepSQL, asOf)
	if err != nil {
		return nil, fmt.Errorf("overdue sweep: %w", err)
	}
	defer rows.Close()

	var out []entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountActive(ctx context.Context, userID string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1 AND status IN ('ISSUED', 'RENEWED', 'OVERDUE')`
	var n int
	err := r.db.QueryRow(ctx, query, userID).Scan(&n)
	return n, err
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]entity.Transaction, error) {
	const query = `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY issue_date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
