package docstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhtranq/inventory-service/internal/storage/docstore"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round-trip a document", func(t *testing.T) {
		store := docstore.NewMemory()

		require.NoError(t, store.Set(ctx, "things", "a", json.RawMessage(`{"x":1}`)))

		doc, err := store.Get(ctx, "things", "a")
		require.NoError(t, err)
		assert.Equal(t, "a", doc.ID)
		assert.JSONEq(t, `{"x":1}`, string(doc.Data))
	})

	t.Run("Should return ErrNotFound for absent documents", func(t *testing.T) {
		store := docstore.NewMemory()

		_, err := store.Get(ctx, "things", "missing")
		assert.ErrorIs(t, err, docstore.ErrNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "things", "missing"), docstore.ErrNotFound)
	})

	t.Run("Should query by top-level string field", func(t *testing.T) {
		store := docstore.NewMemory()

		require.NoError(t, store.Set(ctx, "things", "a", json.RawMessage(`{"sku":"A1"}`)))
		require.NoError(t, store.Set(ctx, "things", "b", json.RawMessage(`{"sku":"B2"}`)))

		docs, err := store.Query(ctx, "things", "sku", "A1", 1)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "a", docs[0].ID)
	})
}

func TestMemoryTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply staged writes on success", func(t *testing.T) {
		store := docstore.NewMemory()

		err := store.RunTransaction(ctx, func(tx docstore.Tx) error {
			return tx.Set(ctx, "things", "a", json.RawMessage(`{"x":1}`))
		})
		require.NoError(t, err)

		_, err = store.Get(ctx, "things", "a")
		assert.NoError(t, err)
	})

	t.Run("Should discard staged writes on error", func(t *testing.T) {
		store := docstore.NewMemory()
		boom := errors.New("boom")

		err := store.RunTransaction(ctx, func(tx docstore.Tx) error {
			if err := tx.Set(ctx, "things", "a", json.RawMessage(`{"x":1}`)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.Get(ctx, "things", "a")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("Should let a transaction read its own staged writes", func(t *testing.T) {
		store := docstore.NewMemory()

		err := store.RunTransaction(ctx, func(tx docstore.Tx) error {
			if err := tx.Set(ctx, "things", "a", json.RawMessage(`{"x":1}`)); err != nil {
				return err
			}
			doc, err := tx.Get(ctx, "things", "a")
			if err != nil {
				return err
			}
			assert.JSONEq(t, `{"x":1}`, string(doc.Data))
			return nil
		})
		require.NoError(t, err)
	})
}

func TestMemoryCommitBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply all staged writes", func(t *testing.T) {
		store := docstore.NewMemory()

		batch := &docstore.WriteBatch{}
		batch.Set("things", "a", json.RawMessage(`{"x":1}`))
		batch.Set("things", "b", json.RawMessage(`{"x":2}`))
		require.Equal(t, 2, batch.Len())

		require.NoError(t, store.CommitBatch(ctx, batch))

		count := 0
		require.NoError(t, store.Scan(ctx, "things", func(docstore.Doc) error {
			count++
			return nil
		}))
		assert.Equal(t, 2, count)
	})

	t.Run("Should treat an empty batch as a no-op", func(t *testing.T) {
		store := docstore.NewMemory()

		assert.NoError(t, store.CommitBatch(ctx, &docstore.WriteBatch{}))
		assert.NoError(t, store.CommitBatch(ctx, nil))
	})
}
