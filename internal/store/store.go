// Package store provides the SQLite record store backing every entity
// collection. Records cross this boundary as flat key/value maps; the
// codec in this package handles the storage representation of list and
// boolean fields.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Record is one entity record in wire form. Values are strings, int64
// numbers, bools and []string lists.
type Record = map[string]any

// Store wraps a sql.DB with per-kind record operations.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// GetAll returns every record of a kind in insertion order.
func (s *Store) GetAll(ctx context.Context, kind models.Kind) ([]Record, error) {
	sch := schemaFor(kind)
	names := colNames(sch)
	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(names, ", "), kind.Table()))
	if err != nil {
		return nil, fmt.Errorf("store: get all %s: %w", kind, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(kind, names, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByID returns one record, or apperr.ErrNotFound on a miss.
func (s *Store) GetByID(ctx context.Context, kind models.Kind, id string) (Record, error) {
	sch := schemaFor(kind)
	names := colNames(sch)
	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, strings.Join(names, ", "), kind.Table()), id)
	if err != nil {
		return nil, fmt.Errorf("store: get %s %s: %w", kind, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, apperr.ErrNotFound
	}
	return scanRecord(kind, names, rows)
}

// Insert adds one record. Fields that are not columns of the kind are
// ignored.
func (s *Store) Insert(ctx context.Context, kind models.Kind, rec Record) error {
	names, vals, err := Encode(kind, rec)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("store: insert %s: empty record", kind)
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		kind.Table(), strings.Join(names, ", "), placeholders(len(names)))
	if _, err := s.conn.ExecContext(ctx, q, vals...); err != nil {
		return fmt.Errorf("store: insert %s: %w", kind, err)
	}
	return nil
}

// Update overwrites the supplied fields of the record with the given
// id. The id column itself is never part of the SET list. Updating an
// id that does not exist is a no-op success.
func (s *Store) Update(ctx context.Context, kind models.Kind, id string, rec Record) error {
	partial := make(Record, len(rec))
	for k, v := range rec {
		if k == "id" {
			continue
		}
		partial[k] = v
	}
	names, vals, err := Encode(kind, partial)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	sets := make([]string, len(names))
	for i, n := range names {
		sets[i] = n + " = ?"
	}
	q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, kind.Table(), strings.Join(sets, ", "))
	if _, err := s.conn.ExecContext(ctx, q, append(vals, id)...); err != nil {
		return fmt.Errorf("store: update %s %s: %w", kind, id, err)
	}
	return nil
}

// Delete removes the record with the given id. Deleting an absent id
// succeeds as a no-op.
func (s *Store) Delete(ctx context.Context, kind models.Kind, id string) error {
	if _, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, kind.Table()), id); err != nil {
		return fmt.Errorf("store: delete %s %s: %w", kind, id, err)
	}
	return nil
}

// ReplaceAll replaces the whole collection with the supplied records,
// in list order. The delete and the inserts are deliberately not
// wrapped in a transaction: a concurrent reader may observe an empty
// or partial collection mid-replace. Callers treat this as
// eventually-consistent, last-writer-wins.
func (s *Store) ReplaceAll(ctx context.Context, kind models.Kind, recs []Record) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM `+kind.Table()); err != nil {
		return fmt.Errorf("store: clear %s: %w", kind, err)
	}
	for _, rec := range recs {
		if err := s.Insert(ctx, kind, rec); err != nil {
			return err
		}
	}
	return nil
}

// Stats computes the dashboard counters with SQL aggregates.
func (s *Store) Stats(ctx context.Context) (models.DashboardStats, error) {
	var st models.DashboardStats
	row := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks WHERE status = 'done'),
			(SELECT COUNT(*) FROM tasks WHERE status != 'done'),
			(SELECT COUNT(*) FROM notes),
			(SELECT COUNT(*) FROM documents)`)
	if err := row.Scan(&st.TasksCompleted, &st.TasksPending, &st.NotesCount, &st.DocsCount); err != nil {
		return st, fmt.Errorf("store: stats: %w", err)
	}
	return st, nil
}

func scanRecord(kind models.Kind, names []string, rows *sql.Rows) (Record, error) {
	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("store: scan %s: %w", kind, err)
	}
	return Decode(kind, names, raw)
}

func colNames(sch tableSchema) []string {
	names := make([]string, len(sch.cols))
	for i, c := range sch.cols {
		names[i] = c.name
	}
	return names
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
