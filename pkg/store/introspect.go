package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// DatabaseSize returns the pretty-printed size of the connected database.
func (s *Store) DatabaseSize(ctx context.Context) (string, error) {
	var size string
	err := s.pool.QueryRow(ctx, `SELECT pg_size_pretty(pg_database_size(current_database()))`).Scan(&size)
	if err != nil {
		return "", errors.Wrap(err, "failed to read database size")
	}
	return size, nil
}

// TableNames lists the user tables of the connected database.
func (s *Store) TableNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog') ORDER BY table_name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CountTableRows counts rows in one of the service tables.
func (s *Store) CountTableRows(ctx context.Context, table string) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + pgx.Identifier{table}.Sanitize()
	if err := s.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "failed to count rows of %q", table)
	}
	return count, nil
}

func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	var chunks [][]T
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size])
	}
	return append(chunks, items)
}
