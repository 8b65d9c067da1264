package book

import (
	"context"
	"fmt"
	"strings"

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

const bookColumns = `id, isbn, title, author, genre, publisher, description, total_copies, available_copies, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, b *entity.Book) error {
	const query = `
		INSERT INTO books (id, isbn, title, author, genre, publisher, description, total_copies, available_copies, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 0, 0, now(), now())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, b.ISBN, b.Title, b.Author, b.Genre, b.Publisher, b.Description).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, "") {
			return entity.NewValidation("isbn already in catalog")
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, b entity.Book) (entity.Book, error) {
	const query = `
		UPDATE books
		SET isbn = $2, title = $3, author = $4, genre = $5, publisher = $6, description = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + bookColumns

	out, err := r.scanBook(r.db.QueryRow(ctx, query, b.ID, b.ISBN, b.Title, b.Author, b.Genre, b.Publisher, b.Description))
	if err != nil {
		return entity.Book{}, store.MapNotFound(err)
	}
	return out, nil
}

func (r *PostgresRepo) GetBook(ctx context.Context, id string) (entity.Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books WHERE id = $1 LIMIT 1`
	b, err := r.scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return entity.Book{}, store.MapNotFound(err)
	}
	return b, nil
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (entity.Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1 LIMIT 1`
	b, err := r.scanBook(r.db.QueryRow(ctx, query, isbn))
	if err != nil {
		return entity.Book{}, store.MapNotFound(err)
	}
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]entity.Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Genre != "" {
		clauses = append(clauses, fmt.Sprintf("genre = $%d", argn))
		args = append(args, q.Genre)
		argn++
	}
	if q.Author != "" {
		clauses = append(clauses, fmt.Sprintf("author ILIKE $%d", argn))
		args = append(args, "%"+q.Author+"%")
		argn++
	}
	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR isbn ILIKE $%d OR publisher ILIKE $%d)", argn, argn+1, argn+2, argn+3))
		pattern := "%" + q.Q + "%"
		args = append(args, pattern, pattern, pattern, pattern)
		argn += 4
	}
	if q.AvailableOnly {
		clauses = append(clauses, "available_copies > 0")
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	sortCol := "title"
	switch q.Sort {
	case "created_at":
		sortCol = "created_at"
	case "available":
		sortCol = "available_copies"
	}
	order := "ASC"
	if q.Desc {
		order = "DESC"
	}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM books %s", where)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT %s FROM books
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, sortCol, order, argn, argn+1)

	args = append(args, q.Limit, q.Offset)
	rows, err := r.db.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []entity.Book
	for rows.Next() {
		b, err := r.scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) scanBook(row interface{ Scan(dest ...any) error }) (entity.Book, error) {
	var b entity.Book
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Genre, &b.Publisher, &b.Description,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
