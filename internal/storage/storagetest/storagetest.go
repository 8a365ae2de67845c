// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/deepcut/internal/profile"
	"github.com/chrissnell/deepcut/internal/storage"
)

// Run exercises a freshly created, empty store
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	params := profile.DefaultParams()
	params.Troughs = &profile.Constraints{Height: profile.Float(10), Distance: 50}

	first := storage.NewRun("sg042", 13350, params, []profile.Segment{{Start: 142, Peak: 646, End: 1105}, {Start: 1241, Peak: 1746, End: 2205}})
	second := storage.NewRun("sg042", 200, profile.DefaultParams(), nil)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	other := storage.NewRun("sg099", 500, profile.DefaultParams(), []profile.Segment{{Start: 0, Peak: 10, End: 20}})
	other.CreatedAt = first.CreatedAt.Add(-time.Minute)

	for _, r := range []storage.Run{second, first, other} {
		require.NoError(t, store.SaveRun(ctx, r))
	}

	t.Run("get", func(t *testing.T) {
		got, err := store.GetRun(ctx, first.ID)
		require.NoError(t, err)
		assertRunEqual(t, first, got)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.GetRun(ctx, uuid.New())
		assert.ErrorIs(t, err, storage.ErrRunNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		assert.Error(t, store.SaveRun(ctx, first))
	})

	t.Run("list by deployment", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "sg042")
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assertRunEqual(t, first, runs[0])
		assertRunEqual(t, second, runs[1])
		assert.Empty(t, runs[1].Segments)
	})

	t.Run("list all", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "")
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, other.ID, runs[0].ID)
	})

	t.Run("list unknown deployment", func(t *testing.T) {
		runs, err := store.ListRuns(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func assertRunEqual(t *testing.T, want, got storage.Run) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Deployment, got.Deployment)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %v, got %v", want.CreatedAt, got.CreatedAt)
	assert.Equal(t, want.Samples, got.Samples)
	assert.Equal(t, want.Params, got.Params)
	assert.Equal(t, want.Segments, got.Segments)
}
