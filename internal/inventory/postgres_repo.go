package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

const copyColumns = `id, book_id, copy_number, status, condition, shelf_location, created_at, updated_at`

func scanCopy(row pgx.Row) (entity.BookCopy, error) {
	var c entity.BookCopy
	err := row.Scan(&c.ID, &c.BookID, &c.CopyNumber, &c.Status, &c.Condition, &c.ShelfLocation, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// AllocateTx selects and issues one AVAILABLE copy on the caller's
// transaction. The preferred copy wins when it is itself AVAILABLE;
// otherwise the lowest copy number does, for deterministic picks.
// SKIP LOCKED guarantees at most one concurrent allocator succeeds per copy.
func AllocateTx(ctx context.Context, q store.Querier, bookID, preferredCopyID string) (entity.BookCopy, error) {
	const pickSQL = `
		SELECT ` + copyColumns + `
		FROM book_copies
		WHERE book_id = $1 AND status = 'AVAILABLE' AND NOT retired
		ORDER BY ($2::uuid IS NOT NULL AND id = $2::uuid) DESC, copy_number ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	// The preferred-copy parameter is uuid-typed in the statement, so the
	// no-preference case must go over the wire as NULL, not "".
	var preferred any
	if preferredCopyID != "" {
		preferred = preferredCopyID
	}

	c, err := scanCopy(q.QueryRow(ctx, pickSQL, bookID, preferred))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.BookCopy{}, entity.ErrNoCopyAvailable
		}
		return entity.BookCopy{}, fmt.Errorf("pick copy: %w", err)
	}

	if _, err := q.Exec(ctx,
		`UPDATE book_copies SET status = 'ISSUED', updated_at = now() WHERE id = $1`, c.ID); err != nil {
		return entity.BookCopy{}, fmt.Errorf("issue copy: %w", err)
	}

	tag, err := q.Exec(ctx,
		`UPDATE books SET available_copies = available_copies - 1, updated_at = now()
		 WHERE id = $1 AND available_copies > 0`, bookID)
	if err != nil {
		return entity.BookCopy{}, fmt.Errorf("decrement available: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.BookCopy{}, fmt.Errorf("available counter out of step for book %s", bookID)
	}

	c.Status = entity.CopyIssued
	return c, nil
}

// ReleaseTx moves an ISSUED copy into newStatus on the caller's transaction,
// stamping the copy's condition on damaged/lost returns and incrementing the
// book counter only for AVAILABLE.
func ReleaseTx(ctx context.Context, q store.Querier, copyID string, newStatus entity.CopyStatus) (entity.BookCopy, error) {
	const releaseSQL = `
		UPDATE book_copies
		SET status = $2,
		    condition = CASE WHEN $2 IN ('DAMAGED', 'LOST') THEN $2 ELSE condition END,
		    updated_at = now()
		WHERE id = $1 AND status = 'ISSUED'
		RETURNING ` + copyColumns

	c, err := scanCopy(q.QueryRow(ctx, releaseSQL, copyID, string(newStatus)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM book_copies WHERE id = $1)`, copyID).Scan(&exists); err != nil {
				return entity.BookCopy{}, err
			}
			if !exists {
				return entity.BookCopy{}, entity.ErrNotFound
			}
			return entity.BookCopy{}, entity.ErrCopyNotIssued
		}
		return entity.BookCopy{}, fmt.Errorf("release copy: %w", err)
	}

	if newStatus == entity.CopyAvailable {
		if _, err := q.Exec(ctx,
			`UPDATE books SET available_copies = available_copies + 1, updated_at = now() WHERE id = $1`,
			c.BookID); err != nil {
			return entity.BookCopy{}, fmt.Errorf("increment available: %w", err)
		}
	}
	return c, nil
}

func (r *PostgresRepo) Allocate(ctx context.Context, bookID, preferredCopyID string) (entity.BookCopy, error) {
	var c entity.BookCopy
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var txErr error
		c, txErr = AllocateTx(ctx, tx, bookID, preferredCopyID)
		return txErr
	})
	return c, err
}

func (r *PostgresRepo) Release(ctx context.Context, copyID string, newStatus entity.CopyStatus) (entity.BookCopy, error) {
	var c entity.BookCopy
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var txErr error
		c, txErr = ReleaseTx(ctx, tx, copyID, newStatus)
		return txErr
	})
	return c, err
}

func (r *PostgresRepo) AddCopies(ctx context.Context, bookID string, count int, shelfLocation string) ([]entity.BookCopy, error) {
	var out []entity.BookCopy
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// lock the book row: it serializes copy numbering per book
		var total int
		err := tx.QueryRow(ctx,
			`SELECT total_copies FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&total)
		if err != nil {
			return store.MapNotFound(err)
		}

		var next int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(copy_number), 0) FROM book_copies WHERE book_id = $1`, bookID).Scan(&next); err != nil {
			return fmt.Errorf("max copy number: %w", err)
		}

		const insertSQL = `
			INSERT INTO book_copies (id, book_id, copy_number, status, condition, shelf_location, retired, created_at, updated_at)
			VALUES ($1, $2, $3, 'AVAILABLE', 'GOOD', $4, FALSE, now(), now())
			RETURNING ` + copyColumns

		for i := 1; i <= count; i++ {
			c, err := scanCopy(tx.QueryRow(ctx, insertSQL, uuid.NewString(), bookID, next+i, shelfLocation))
			if err != nil {
				return fmt.Errorf("insert copy: %w", err)
			}
			out = append(out, c)
		}

		_, err = tx.Exec(ctx,
			`UPDATE books
			 SET total_copies = total_copies + $2, available_copies = available_copies + $2, updated_at = now()
			 WHERE id = $1`, bookID, count)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepo) Retire(ctx context.Context, copyID string) error {
	return store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var bookID string
		var status entity.CopyStatus
		err := tx.QueryRow(ctx,
			`SELECT book_id, status FROM book_copies WHERE id = $1 AND NOT retired FOR UPDATE`,
			copyID).Scan(&bookID, &status)
		if err != nil {
			return store.MapNotFound(err)
		}
		if status == entity.CopyIssued {
			return entity.ErrCopyIssued
		}

		if _, err := tx.Exec(ctx,
			`UPDATE book_copies SET retired = TRUE, updated_at = now() WHERE id = $1`, copyID); err != nil {
			return err
		}

		availableDelta := 0
		if status == entity.CopyAvailable {
			availableDelta = 1
		}
		_, err = tx.Exec(ctx,
			`UPDATE books
			 SET total_copies = total_copies - 1, available_copies = available_copies - $2, updated_at = now()
			 WHERE id = $1`, bookID, availableDelta)
		return err
	})
}

func (r *PostgresRepo) SetStatus(ctx context.Context, copyID string, allowedFrom []entity.CopyStatus, to entity.CopyStatus) (entity.BookCopy, error) {
	var out entity.BookCopy
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var bookID string
		var current entity.CopyStatus
		err := tx.QueryRow(ctx,
			`SELECT book_id, status FROM book_copies WHERE id = $1 AND NOT retired FOR UPDATE`,
			copyID).Scan(&bookID, &current)
		if err != nil {
			return store.MapNotFound(err)
		}
		if current == entity.CopyIssued {
			return entity.ErrCopyIssued
		}
		if !statusIn(current, allowedFrom) {
			return entity.ErrInvalidState
		}

		const updateSQL = `
			UPDATE book_copies
			SET status = $2,
			    condition = CASE WHEN $2 = 'AVAILABLE' THEN 'GOOD' ELSE condition END,
			    updated_at = now()
			WHERE id = $1
			RETURNING ` + copyColumns

		out, err = scanCopy(tx.QueryRow(ctx, updateSQL, copyID, string(to)))
		if err != nil {
			return err
		}

		delta := 0
		if to == entity.CopyAvailable && current != entity.CopyAvailable {
			delta = 1
		}
		if to != entity.CopyAvailable && current == entity.CopyAvailable {
			delta = -1
		}
		if delta != 0 {
			if _, err := tx.Exec(ctx,
				`UPDATE books SET available_copies = available_copies + $2, updated_at = now() WHERE id = $1`,
				bookID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (r *PostgresRepo) GetCopy(ctx context.Context, copyID string) (entity.BookCopy, error) {
	const query = `SELECT ` + copyColumns + ` FROM book_copies WHERE id = $1 AND NOT retired`
	c, err := scanCopy(r.db.QueryRow(ctx, query, copyID))
	if err != nil {
		return entity.BookCopy{}, store.MapNotFound(err)
	}
	return c, nil
}

func (r *PostgresRepo) ListByBook(ctx context.Context, bookID string) ([]entity.BookCopy, error) {
	const query = `
		SELECT ` + copyColumns + `
		FROM book_copies
		WHERE book_id = $1 AND NOT retired
		ORDER BY copy_number ASC`

	rows, err := r.db.Query(ctx, query, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.BookCopy
	for rows.Next() {
		c, err := scanCopy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func statusIn(s entity.CopyStatus, set []entity.CopyStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
