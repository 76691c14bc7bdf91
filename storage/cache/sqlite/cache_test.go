package sqlitecache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core/planner"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	cache, err := Open(ctx, MemoryPath)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	_, found, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	snap := planner.Snapshot{
		Activities:      []planner.Activity{{ID: "a1", Name: "Mates", Type: planner.TypeClass, StudentIDs: []string{"s1"}}},
		Students:        []planner.Student{{ID: "s1", Name: "Ana"}},
		Schedule:        map[string]string{"Lunes-08:00-09:00": "a1"},
		CourseStartDate: "2025-09-08",
	}
	require.NoError(t, cache.Save(ctx, snap))
	snap.Students[0].Name = "Ana María"
	require.NoError(t, cache.Save(ctx, snap))

	got, found, err := cache.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana María", got.Students[0].Name)
	assert.Equal(t, []string{"s1"}, got.Activities[0].StudentIDs)
	assert.Equal(t, "a1", got.Schedule["Lunes-08:00-09:00"])
	assert.Equal(t, "2025-09-08", got.CourseStartDate)
	assert.NotNil(t, got.ClassEntries)

	require.NoError(t, cache.Clear(ctx))
	_, found, err = cache.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	cache, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, planner.Snapshot{Students: []planner.Student{{ID: "s1", Name: "Ana"}}}))
	require.NoError(t, cache.Close())

	// migrations are not applied twice
	cache, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()
	got, found, err := cache.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, got.Students, 1)
}
