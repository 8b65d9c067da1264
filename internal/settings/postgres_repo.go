package settings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads settings rows and resolves them on every call. Policy
// values change rarely and reads are cheap; callers that care can layer a
// cache on top.
type PostgresSource struct {
	db *pgxpool.Pool
}

func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Policy(ctx context.Context) (Policy, error) {
	const query = `SELECT key, value, data_type FROM settings`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return Policy{}, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	var stored []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Key, &r.Value, &r.DataType); err != nil {
			return Policy{}, fmt.Errorf("scan setting: %w", err)
		}
		stored = append(stored, r)
	}
	if err := rows.Err(); err != nil {
		return Policy{}, err
	}
	return Resolve(stored)
}
