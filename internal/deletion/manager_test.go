package deletion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/memstore"
	"github.com/thebtf/medialens/internal/vector"
	"github.com/thebtf/medialens/pkg/models"
)

// brokenVectors fails every delete.
type brokenVectors struct {
	vector.Store
}

func (b *brokenVectors) Delete(ctx context.Context, siteKey string, ids []string) error {
	return errors.New("vector store unavailable")
}

func seed(t *testing.T) (*memstore.Relational, *memstore.Vector) {
	t.Helper()
	ctx := context.Background()
	store := memstore.NewRelational()
	vectors := memstore.NewVector()

	alt := "a lighthouse"
	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{
		{Hash: "h1", SiteKey: "site-a", URL: "u1", PageURL: "p1", Alt: &alt},
		{Hash: "h2", SiteKey: "site-a", URL: "u2", PageURL: "p2", Alt: &alt},
		{Hash: "h1", SiteKey: "site-b", URL: "u1", PageURL: "p1", Alt: &alt},
	}))
	require.NoError(t, vectors.Upsert(ctx, []vector.Document{
		{ID: "h1", SiteKey: "site-a", Embedding: []float32{1, 0}},
		{ID: "h2", SiteKey: "site-a", Embedding: []float32{0, 1}},
		{ID: "h1", SiteKey: "site-b", Embedding: []float32{1, 0}},
	}))
	return store, vectors
}

func TestDeleteHashesRemovesFromBothStores(t *testing.T) {
	ctx := context.Background()
	store, vectors := seed(t)
	m := NewManager(store, vectors)

	deleted, err := m.DeleteHashes(ctx, "site-a", []string{"h1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := store.Count(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	results, err := vectors.Query(ctx, "site-a", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "h2", results[0].ID)
}

func TestDeleteHashesScopedToSite(t *testing.T) {
	ctx := context.Background()
	store, vectors := seed(t)
	m := NewManager(store, vectors)

	_, err := m.DeleteHashes(ctx, "site-a", []string{"h1", "h2"})
	require.NoError(t, err)

	count, err := store.Count(ctx, "site-b", db.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "other sites keep their records")

	results, err := vectors.Query(ctx, "site-b", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDeleteHashesVectorFailureSurfacesError(t *testing.T) {
	ctx := context.Background()
	store, _ := seed(t)
	m := NewManager(store, &brokenVectors{})

	deleted, err := m.DeleteHashes(ctx, "site-a", []string{"h1"})
	require.Error(t, err)
	assert.Equal(t, int64(1), deleted, "relational delete already happened")

	count, err := store.Count(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestClearSite(t *testing.T) {
	ctx := context.Background()
	store, vectors := seed(t)
	m := NewManager(store, vectors)

	deleted, err := m.ClearSite(ctx, "site-a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := store.Count(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := vectors.Query(ctx, "site-a", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClearSiteEmpty(t *testing.T) {
	m := NewManager(memstore.NewRelational(), memstore.NewVector())

	deleted, err := m.ClearSite(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
