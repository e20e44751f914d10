// Package sqlstore persists documents in sqlite or postgres. The schema is
// managed by embedded goose migrations.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/schemas"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	Dialect Dialect
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN    string
	Logger *slog.Logger
	Now    func() time.Time
}

type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	locks   *docstore.Locks
	now     func() time.Time
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var (
		db           *sql.DB
		err          error
		gooseDialect goose.Dialect
	)
	switch cfg.Dialect {
	case DialectSQLite:
		db, err = openSQLite(cfg.DSN)
		gooseDialect = goose.DialectSQLite3
	case DialectPostgres:
		db, err = sql.Open("postgres", cfg.DSN)
		gooseDialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", cfg.Dialect)
	}
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, gooseDialect, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		dialect: cfg.Dialect,
		logger:  logger.With(slog.String("component", "sqlstore"), slog.String("dialect", string(cfg.Dialect))),
		locks:   docstore.NewLocks(),
		now:     now,
	}, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, dialect goose.Dialect, db *sql.DB) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, db, migrations)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, id, content, actor string) (schemas.Document, error) {
	if err := docstore.ValidateID(id); err != nil {
		return schemas.Document{}, err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO documents (id, content, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING
`), id, content, actor, formatTime(now), formatTime(now))
	if err != nil {
		return schemas.Document{}, fmt.Errorf("insert document %s: %w", id, err)
	}
	if err := requireAffected(res, "insert", id, docstore.AlreadyExists); err != nil {
		return schemas.Document{}, err
	}

	s.logger.Info("Document created", slog.String("id", id), slog.String("by", actor))
	return schemas.Document{ID: id, Content: content, CreatedBy: actor, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) Read(ctx context.Context, id string) (schemas.Document, error) {
	return s.get(ctx, s.db, id)
}

func (s *Store) Update(ctx context.Context, id, content, actor string) (schemas.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schemas.Document{}, err
	}
	defer tx.Rollback()

	doc, err := s.get(ctx, tx, id)
	if err != nil {
		return schemas.Document{}, err
	}
	doc.Content = content
	doc.UpdatedAt = s.timestamp()
	if !doc.UpdatedAt.After(doc.CreatedAt) {
		doc.UpdatedAt = doc.CreatedAt.Add(time.Microsecond)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
UPDATE documents
SET content = ?, updated_at = ?
WHERE id = ?
`), doc.Content, formatTime(doc.UpdatedAt), id); err != nil {
		return schemas.Document{}, fmt.Errorf("update document %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return schemas.Document{}, err
	}

	s.logger.Info("Document updated", slog.String("id", id), slog.String("by", actor))
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, id, actor string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if err := requireAffected(res, "delete", id, docstore.NotFound); err != nil {
		return err
	}

	s.logger.Info("Document deleted", slog.String("id", id), slog.String("by", actor))
	return nil
}

// requireAffected fails with none(id) when the statement touched no row.
// A driver that cannot report the count is an error, not a success.
func requireAffected(res sql.Result, op, id string, none func(string) error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s document %s: rows affected: %w", op, id, err)
	}
	if n == 0 {
		return none(id)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]schemas.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, content, created_by, created_at, updated_at
FROM documents
ORDER BY id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []schemas.DocumentSummary{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, docstore.Summarize(doc))
	}
	return summaries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) get(ctx context.Context, q querier, id string) (schemas.Document, error) {
	row := q.QueryRowContext(ctx, s.rebind(`
SELECT id, content, created_by, created_at, updated_at
FROM documents
WHERE id = ?
`), id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schemas.Document{}, docstore.NotFound(id)
		}
		return schemas.Document{}, fmt.Errorf("read document %s: %w", id, err)
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (schemas.Document, error) {
	var (
		doc       schemas.Document
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&doc.ID, &doc.Content, &doc.CreatedBy, &createdAt, &updatedAt); err != nil {
		return schemas.Document{}, err
	}
	var err error
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return schemas.Document{}, fmt.Errorf("parse created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return schemas.Document{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return doc, nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
