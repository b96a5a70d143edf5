package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// tables maps collection names to their PostgreSQL tables.
var tables = map[string]string{
	Users:       "users",
	Products:    "products",
	BidRequests: "bid_requests",
	Orders:      "orders",
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps every collection in a table of (id, doc JSONB).
type PostgresStore struct {
	db   *sql.DB
	exec executor
	inTx bool
}

// OpenPostgres connects to dsn and makes sure the collection tables exist.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, exec: db}
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// EnsureSchema creates the collection tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, c := range Collections {
		table := tables[c]
		_, err := s.exec.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
			  seq        BIGSERIAL,
			  id         TEXT PRIMARY KEY,
			  doc        JSONB NOT NULL,
			  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, table))
		if err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresStore) table(collection string) (string, error) {
	t, ok := tables[collection]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return t, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string, out any) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id=$1`, table)
	if s.inTx {
		query += ` FOR UPDATE`
	}

	var raw []byte
	err = s.exec.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *PostgresStore) Find(ctx context.Context, collection string, q Query, out any) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	where, args, err := sqlConditions(q.Filters, 1)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT doc FROM %s`, table)
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY seq`
	if q.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, q.Limit)
	}

	rows, err := s.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		docs = append(docs, raw)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	buf := bytes.NewBufferString("[")
	buf.Write(bytes.Join(docs, []byte(",")))
	buf.WriteString("]")
	return json.Unmarshal(buf.Bytes(), out)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	table, err := s.table(collection)
	if err != nil {
		return "", err
	}
	if doc.DocumentID() == "" {
		doc.SetDocumentID(newID())
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("docstore: encode document: %w", err)
	}

	_, err = s.exec.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, table),
		doc.DocumentID(), string(raw))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", fmt.Errorf("docstore: duplicate id %s in %s: %w", doc.DocumentID(), collection, err)
		}
		return "", fmt.Errorf("insert %s: %w", table, err)
	}
	return doc.DocumentID(), nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, set map[string]any, expect ...Filter) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	if err := checkFields(set); err != nil {
		return err
	}
	fields := make(map[string]any, len(set))
	for k, v := range set {
		fields[k] = normalize(v)
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: encode update: %w", err)
	}

	where, args, err := sqlConditions(expect, 3)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET doc = doc || $1::jsonb WHERE id=$2`, table)
	if where != "" {
		query += ` AND ` + where
	}

	res, err := s.exec.ExecContext(ctx, query, append([]any{string(patch), id}, args...)...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if len(expect) == 0 {
		return ErrNotFound
	}

	var one int
	err = s.exec.QueryRowContext(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id=$1`, table), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrPreconditionFailed
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	res, err := s.exec.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, table), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(ctx, &PostgresStore{db: s.db, exec: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────────────────

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNe:  "IS DISTINCT FROM",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

// sqlConditions renders filters as JSONB predicates with placeholders numbered from first.
func sqlConditions(filters []Filter, first int) (string, []any, error) {
	if err := checkFilters(filters); err != nil {
		return "", nil, err
	}

	var (
		parts []string
		args  []any
	)
	for _, f := range filters {
		expr := jsonPath(f.Field)
		value := normalize(f.Value)

		if value == nil {
			if f.Op == OpEq {
				parts = append(parts, expr+` IS NULL`)
			} else {
				parts = append(parts, expr+` IS NOT NULL`)
			}
			continue
		}

		switch value.(type) {
		case int64, float64:
			expr = `(` + expr + `)::numeric`
		case bool:
			expr = `(` + expr + `)::boolean`
		case time.Time:
			expr = `(` + expr + `)::timestamptz`
		}
		args = append(args, value)
		parts = append(parts, fmt.Sprintf(`%s %s $%d`, expr, sqlOps[f.Op], first+len(args)-1))
	}
	return strings.Join(parts, ` AND `), args, nil
}

// jsonPath is safe to inline because field names are validated by checkFilters.
func jsonPath(field string) string {
	if !strings.Contains(field, ".") {
		return fmt.Sprintf(`doc->>'%s'`, field)
	}
	return fmt.Sprintf(`doc #>> '{%s}'`, strings.ReplaceAll(field, ".", ","))
}
