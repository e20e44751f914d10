package sqlstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/docgate/docgate/internals/docstore"
	"github.com/docgate/docgate/internals/docstore/storetest"
	"github.com/docgate/docgate/internals/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLiteStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(context.Background(), Config{
		Dialect: DialectSQLite,
		DSN:     path,
		Logger:  testutil.DiscardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return openSQLiteStore(t, testutil.TempDBPath(t))
	})
}

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("DOCGATE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCGATE_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T) docstore.Store {
		store, err := Open(context.Background(), Config{
			Dialect: DialectPostgres,
			DSN:     dsn,
			Logger:  testutil.DiscardLogger(),
		})
		require.NoError(t, err)
		_, err = store.db.Exec("DELETE FROM documents")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := testutil.TempDBPath(t)
	ctx := context.Background()

	first := openSQLiteStore(t, path)
	_, err := first.Create(ctx, "kept", "across reopen", "alice")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openSQLiteStore(t, path)
	doc, err := second.Read(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "across reopen", doc.Content)
}

func TestUpdateWithFrozenClock(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store, err := Open(context.Background(), Config{
		Dialect: DialectSQLite,
		DSN:     testutil.TempDBPath(t),
		Logger:  testutil.DiscardLogger(),
		Now:     func() time.Time { return frozen },
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	_, err = store.Create(ctx, "frozen", "v1", "alice")
	require.NoError(t, err)
	updated, err := store.Update(ctx, "frozen", "v2", "alice")
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	read, err := store.Read(ctx, "frozen")
	require.NoError(t, err)
	assert.True(t, read.UpdatedAt.Equal(updated.UpdatedAt))
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM documents WHERE id = $1 AND created_by = $2", pg.rebind("SELECT * FROM documents WHERE id = ? AND created_by = ?"))

	lite := &Store{dialect: DialectSQLite}
	assert.Equal(t, "WHERE id = ?", lite.rebind("WHERE id = ?"))
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Config{Dialect: "mysql", DSN: "x"})
	assert.Error(t, err)
}

type stubResult struct {
	n   int64
	err error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.n, r.err }

func TestRequireAffected(t *testing.T) {
	driverErr := errors.New("rows affected unsupported")

	err := requireAffected(stubResult{err: driverErr}, "insert", "doc", docstore.AlreadyExists)
	require.Error(t, err)
	assert.ErrorIs(t, err, driverErr)
	assert.NotErrorIs(t, err, docstore.ErrAlreadyExists)

	err = requireAffected(stubResult{n: 0}, "insert", "doc", docstore.AlreadyExists)
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	err = requireAffected(stubResult{n: 0}, "delete", "doc", docstore.NotFound)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	assert.NoError(t, requireAffected(stubResult{n: 1}, "insert", "doc", docstore.AlreadyExists))
}

func TestCreateDuplicateReportsAlreadyExists(t *testing.T) {
	store := openSQLiteStore(t, testutil.TempDBPath(t))
	ctx := context.Background()

	_, err := store.Create(ctx, "dup", "first", "alice")
	require.NoError(t, err)
	_, err = store.Create(ctx, "dup", "second", "alice")
	assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

	doc, err := store.Read(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "first", doc.Content)
}
