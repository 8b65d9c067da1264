package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"libraryapi/internal/entity"
	"libraryapi/internal/store"
)

// PostgresRepo implements both Repository and Transactions: reconciliation
// owns its own reads of the transactions table so the circulation package
// stays a pure dependency-free writer of that table.
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const paymentColumns = `id, user_id, transaction_id, amount, late_fee, damage_charge, deposit, delivery_fee, method, status, created_at, updated_at`

func scanPayment(row pgx.Row) (entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.TransactionID, &p.Amount,
		&p.Breakdown.LateFee, &p.Breakdown.DamageCharge, &p.Breakdown.Deposit, &p.Breakdown.DeliveryFee,
		&p.Method, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepo) Create(ctx context.Context, p entity.Payment) error {
	const query = `
		INSERT INTO payments (id, user_id, transaction_id, amount, late_fee, damage_charge, deposit, delivery_fee, method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query, p.ID, p.UserID, p.TransactionID, p.Amount,
		p.Breakdown.LateFee, p.Breakdown.DamageCharge, p.Breakdown.Deposit, p.Breakdown.DeliveryFee,
		p.Method, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (entity.Payment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return entity.Payment{}, store.MapNotFound(err)
	}
	return p, nil
}

func (r *PostgresRepo) SumCompletedForTransaction(ctx context.Context, transactionID string) (decimal.Decimal, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE transaction_id = $1 AND status = 'COMPLETED'`

	var sum decimal.Decimal
	if err := r.db.QueryRow(ctx, query, transactionID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

func (r *PostgresRepo) SetStatus(ctx context.Context, id string, from, to entity.PaymentStatus) (entity.Payment, error) {
	const query = `
		UPDATE payments SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.db.QueryRow(ctx, query, id, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.Get(ctx, id); getErr != nil {
				return entity.Payment{}, getErr
			}
			return entity.Payment{}, entity.ErrInvalidState
		}
		return entity.Payment{}, fmt.Errorf("update payment status: %w", err)
	}
	return p, nil
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]entity.Payment, error) {
	const query = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const txColumns = `id, user_id, book_id, copy_id, status, issue_date, due_date, return_date, renewal_count, fine_amount, fine_paid, home_delivery, created_at, updated_at`

func scanTransaction(row pgx.Row) (entity.Transaction, error) {
	var t entity.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.BookID, &t.CopyID, &t.Status, &t.IssueDate, &t.DueDate,
		&t.ReturnDate, &t.RenewalCount, &t.FineAmount, &t.FinePaid, &t.HomeDelivery, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetTransaction satisfies Transactions.Get.
func (r *PostgresRepo) GetTransaction(ctx context.Context, id string) (entity.Transaction, error) {
	const query = `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return entity.Transaction{}, store.MapNotFound(err)
	}
	return t, nil
}

func (r *PostgresRepo) SetFinePaid(ctx context.Context, id string) error {
	const query = `
		UPDATE transactions SET fine_paid = TRUE, updated_at = now()
		WHERE id = $1 AND NOT fine_paid`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark fine paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already settled or missing; either way there is nothing to do.
		if _, getErr := r.GetTransaction(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (r *PostgresRepo) ListUnsettled(ctx context.Context, userID string) ([]entity.Transaction, error) {
	const query = `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE user_id = $1
		  AND ((status = 'RETURNED' AND NOT fine_paid AND fine_amount > 0) OR status = 'OVERDUE')
		ORDER BY due_date ASC`

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
