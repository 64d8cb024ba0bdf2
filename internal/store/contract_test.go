package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/serroba/easy-qr-codes/internal/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepository runs the behaviour every qrcode.Repository must share.
// newRepo must return an empty store.
func testRepository(t *testing.T, newRepo func(t *testing.T) qrcode.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("create assigns increasing ids and a pending record", func(t *testing.T) {
		repo := newRepo(t)

		first, err := repo.Create(ctx, "https://example.com/page")
		require.NoError(t, err)

		second, err := repo.Create(ctx, "https://example.com/other")
		require.NoError(t, err)

		assert.Greater(t, second, first)

		got, err := repo.Get(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, first, got.ID)
		assert.Equal(t, "https://example.com/page", got.TargetURL)
		assert.Empty(t, got.ImageReference)
		assert.Equal(t, qrcode.StatusPending, got.Status)
		assert.Zero(t, got.UsageCount)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("create rejects invalid url", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Create(ctx, "not a url")

		assert.ErrorIs(t, err, qrcode.ErrValidation)
	})

	t.Run("get unknown id returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.Get(ctx, 9999)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("list returns newest first", func(t *testing.T) {
		repo := newRepo(t)

		var ids []qrcode.ID

		for _, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
			id, err := repo.Create(ctx, u)
			require.NoError(t, err)

			ids = append(ids, id)
		}

		records, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, ids[2], records[0].ID)
		assert.Equal(t, ids[1], records[1].ID)
		assert.Equal(t, ids[0], records[2].ID)
	})

	t.Run("set image reference marks record rendered", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "https://example.com")
		require.NoError(t, err)

		require.NoError(t, repo.SetImageReference(ctx, id, "/uploads/qr_codes/qr_code_1.png"))

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/uploads/qr_codes/qr_code_1.png", got.ImageReference)
		assert.Equal(t, qrcode.StatusRendered, got.Status)
	})

	t.Run("set image reference on unknown id returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.SetImageReference(ctx, 9999, "ref")

		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("set target url", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "https://example.com/page")
		require.NoError(t, err)

		require.NoError(t, repo.SetTargetURL(ctx, id, "https://example.com/other"))

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/other", got.TargetURL)
	})

	t.Run("set target url rejects invalid url and keeps the record", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "https://example.com/page")
		require.NoError(t, err)

		for _, bad := range []string{"", "   ", "example.com/no-scheme", "ftp://example.com"} {
			err = repo.SetTargetURL(ctx, id, bad)
			assert.ErrorIs(t, err, qrcode.ErrValidation, "input %q", bad)
		}

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", got.TargetURL)
	})

	t.Run("set target url on unknown id returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.SetTargetURL(ctx, 9999, "https://example.com")

		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("increment usage returns the new count", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "https://example.com")
		require.NoError(t, err)

		for want := uint64(1); want <= 3; want++ {
			count, err := repo.IncrementUsage(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("increment usage on unknown id returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.IncrementUsage(ctx, 9999)

		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		repo := newRepo(t)
		id, err := repo.Create(ctx, "https://example.com")
		require.NoError(t, err)

		const n = 50

		var wg sync.WaitGroup

		for range n {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = repo.IncrementUsage(ctx, id)
			}()
		}

		wg.Wait()

		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(n), got.UsageCount)
	})
}
