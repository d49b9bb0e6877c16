package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/medialens/internal/cache"
	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/vector"
	"github.com/thebtf/medialens/pkg/models"
)

func strp(s string) *string { return &s }

func record(site, hash string, alt *string) models.MediaRecord {
	return models.MediaRecord{
		Hash:      hash,
		SiteKey:   site,
		URL:       "https://cdn.example.com/" + hash + ".png",
		PageURL:   "https://example.com/page",
		Type:      "img > png",
		Alt:       alt,
		IndexedAt: time.Now().UTC(),
	}
}

func TestRelationalUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	batch := []models.MediaRecord{
		record("site-a", "h1", nil),
		record("site-a", "h2", strp("a dog")),
	}
	require.NoError(t, store.UpsertBatch(ctx, batch))
	require.NoError(t, store.UpsertBatch(ctx, batch))

	count, err := store.Count(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRelationalUpsertOverwritesInPlace(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{record("site-a", "h1", nil)}))
	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{record("site-a", "h1", strp("updated"))}))

	recs, err := store.List(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "updated", recs[0].AltText())
}

func TestRelationalAltStateFilters(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{
		record("site-a", "missing", nil),
		record("site-a", "decorative", strp("")),
		record("site-a", "filled", strp("a red bicycle")),
	}))

	tests := []struct {
		state db.AltState
		want  int64
	}{
		{db.AltAny, 3},
		{db.AltMissing, 1},
		{db.AltDecorative, 1},
		{db.AltFilled, 1},
	}
	for _, tt := range tests {
		count, err := store.Count(ctx, "site-a", db.ListFilter{AltState: tt.state})
		require.NoError(t, err)
		assert.Equal(t, tt.want, count, "state %q", tt.state)
	}
}

func TestRelationalSiteIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{
		record("site-a", "h1", nil),
		record("site-b", "h1", nil),
		record("site-b", "h2", nil),
	}))

	countA, err := store.Count(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	countB, err := store.Count(ctx, "site-b", db.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countA)
	assert.Equal(t, int64(2), countB)
}

func TestRelationalFilterCountsPartition(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{
		record("site-a", "m1", nil),
		record("site-a", "m2", nil),
		record("site-a", "d1", strp("")),
		record("site-a", "f1", strp("sunset over the bay")),
	}))

	counts, err := store.FilterCounts(ctx, "site-a")
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts.Images)
	assert.Equal(t, int64(2), counts.Empty)
	assert.Equal(t, int64(1), counts.Decorative)
	assert.Equal(t, int64(1), counts.Filled)
	assert.Equal(t, counts.Images, counts.Empty+counts.Decorative+counts.Filled)
}

func TestRelationalTypeAndFormatFilters(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	png := record("site-a", "h1", nil)
	png.Type = "img > png"
	webp := record("site-a", "h2", nil)
	webp.Type = "img > webp"
	video := record("site-a", "h3", nil)
	video.Type = "video > mp4"
	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{png, webp, video}))

	imgs, err := store.Count(ctx, "site-a", db.ListFilter{TypePrefix: "img"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), imgs)

	webps, err := store.Count(ctx, "site-a", db.ListFilter{Format: "webp"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), webps)
}

func TestRelationalDeleteHashes(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{
		record("site-a", "h1", nil),
		record("site-a", "h2", nil),
	}))

	deleted, err := store.DeleteHashes(ctx, "site-a", []string{"h1", "absent"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := store.Count(ctx, "site-a", db.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRelationalListSites(t *testing.T) {
	ctx := context.Background()
	store := NewRelational()

	require.NoError(t, store.UpsertBatch(ctx, []models.MediaRecord{
		record("site-a", "h1", nil),
		record("site-b", "h1", nil),
		record("site-b", "h2", nil),
	}))

	sites, err := store.ListSites(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "site-b", sites[0].SiteKey)
	assert.Equal(t, int64(2), sites[0].Count)
}

func TestVectorQueryRanksByDistance(t *testing.T) {
	ctx := context.Background()
	store := NewVector()

	require.NoError(t, store.Upsert(ctx, []vector.Document{
		{ID: "near", SiteKey: "site-a", Embedding: []float32{1, 0}},
		{ID: "far", SiteKey: "site-a", Embedding: []float32{0, 1}},
		{ID: "other-site", SiteKey: "site-b", Embedding: []float32{1, 0}},
	}))

	results, err := store.Query(ctx, "site-a", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].ID)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestVectorDelete(t *testing.T) {
	ctx := context.Background()
	store := NewVector()

	require.NoError(t, store.Upsert(ctx, []vector.Document{
		{ID: "h1", SiteKey: "site-a", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, store.Delete(ctx, "site-a", []string{"h1"}))

	results, err := store.Query(ctx, "site-a", []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 50*time.Millisecond))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	time.Sleep(80 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestCacheMiss(t *testing.T) {
	_, err := NewCache().Get(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrMiss)
}
