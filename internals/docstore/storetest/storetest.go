// Package storetest holds behaviour tests shared by every docstore backend.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/docgate/docgate/internals/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises newStore against the docstore.Store contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Run("CreateThenRead", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, "report", "hello", "alice")
		require.NoError(t, err)
		assert.Equal(t, "report", created.ID)
		assert.Equal(t, "alice", created.CreatedBy)
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

		read, err := store.Read(ctx, "report")
		require.NoError(t, err)
		assert.Equal(t, "hello", read.Content)
		assert.True(t, created.CreatedAt.Equal(read.CreatedAt))
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Create(ctx, "dup", "one", "alice")
		require.NoError(t, err)
		_, err = store.Create(ctx, "dup", "two", "charlie")
		require.ErrorIs(t, err, docstore.ErrAlreadyExists)
		assert.Equal(t, "Document 'dup' already exists", err.Error())

		read, err := store.Read(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, "one", read.Content)
	})

	t.Run("MissingDocument", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Read(ctx, "missing")
		require.ErrorIs(t, err, docstore.ErrNotFound)
		assert.Equal(t, "Document 'missing' not found", err.Error())

		_, err = store.Update(ctx, "missing", "x", "alice")
		require.ErrorIs(t, err, docstore.ErrNotFound)

		err = store.Delete(ctx, "missing", "alice")
		require.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("UpdateRefreshesTimestamp", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, "notes", "v1", "alice")
		require.NoError(t, err)
		updated, err := store.Update(ctx, "notes", "v2", "charlie")
		require.NoError(t, err)

		assert.Equal(t, "v2", updated.Content)
		assert.Equal(t, "alice", updated.CreatedBy)
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

		read, err := store.Read(ctx, "notes")
		require.NoError(t, err)
		assert.Equal(t, "v2", read.Content)
		assert.True(t, read.UpdatedAt.Equal(updated.UpdatedAt))
	})

	t.Run("DeleteRemoves", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Create(ctx, "gone", "bye", "alice")
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, "gone", "alice"))

		_, err = store.Read(ctx, "gone")
		require.ErrorIs(t, err, docstore.ErrNotFound)

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = store.Create(ctx, "gone", "again", "alice")
		require.NoError(t, err)
	})

	t.Run("ListSummaries", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		long := strings.Repeat("x", 120)
		_, err := store.Create(ctx, "b-long", long, "alice")
		require.NoError(t, err)
		_, err = store.Create(ctx, "a-short", "tiny", "charlie")
		require.NoError(t, err)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a-short", list[0].ID)
		assert.Equal(t, "tiny", list[0].ContentPreview)
		assert.Equal(t, "charlie", list[0].CreatedBy)
		assert.Equal(t, "b-long", list[1].ID)
		assert.Equal(t, strings.Repeat("x", 100)+"...", list[1].ContentPreview)
	})

	t.Run("InvalidIDRejectedOnCreate", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Create(context.Background(), "../escape", "x", "alice")
		require.ErrorIs(t, err, docstore.ErrInvalidID)
	})

	t.Run("ConcurrentCreateSameID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.Create(ctx, "race", fmt.Sprintf("writer %d", i), "alice")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case assert.ErrorIs(t, err, docstore.ErrAlreadyExists):
					conflicts++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 7, conflicts)
	})
}
