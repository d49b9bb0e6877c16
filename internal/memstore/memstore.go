// Package memstore provides in-memory implementations of the relational,
// vector, and cache stores. Used by tests and by the worker's -memory mode.
package memstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thebtf/medialens/internal/cache"
	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/vector"
	"github.com/thebtf/medialens/pkg/models"
)

// Relational is an in-memory db.RelationalStore.
type Relational struct {
	mu    sync.RWMutex
	sites map[string]map[string]models.MediaRecord // siteKey -> hash -> record
}

// NewRelational creates an empty in-memory relational store.
func NewRelational() *Relational {
	return &Relational{sites: make(map[string]map[string]models.MediaRecord)}
}

func (r *Relational) UpsertBatch(ctx context.Context, records []models.MediaRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		site, ok := r.sites[rec.SiteKey]
		if !ok {
			site = make(map[string]models.MediaRecord)
			r.sites[rec.SiteKey] = site
		}
		site[rec.Hash] = rec
	}
	return nil
}

// matches applies db.ListFilter semantics to a single record.
func matches(rec *models.MediaRecord, f db.ListFilter) bool {
	switch f.AltState {
	case db.AltMissing:
		if !rec.MissingAlt() {
			return false
		}
	case db.AltDecorative:
		if !rec.Decorative() {
			return false
		}
	case db.AltFilled:
		if !rec.FilledAlt() {
			return false
		}
	}
	if f.Orientation != "" && rec.Orientation != f.Orientation {
		return false
	}
	if f.TypePrefix != "" && !strings.HasPrefix(rec.Type, f.TypePrefix) {
		return false
	}
	if f.Format != "" && !strings.HasSuffix(rec.Type, f.Format) {
		return false
	}
	if f.Lazy != nil && rec.IsLazyLoaded != *f.Lazy {
		return false
	}
	return true
}

func (r *Relational) Count(ctx context.Context, siteKey string, f db.ListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, rec := range r.sites[siteKey] {
		if matches(&rec, f) {
			n++
		}
	}
	return n, nil
}

func (r *Relational) List(ctx context.Context, siteKey string, f db.ListFilter) ([]models.MediaRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.MediaRecord
	for _, rec := range r.sites[siteKey] {
		if matches(&rec, f) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexedAt.After(out[j].IndexedAt) })
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Relational) FilterCounts(ctx context.Context, siteKey string) (*models.FilterCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := &models.FilterCounts{
		ByOrientation: make(map[string]int64),
		ByType:        make(map[string]int64),
	}
	for _, rec := range r.sites[siteKey] {
		counts.Images++
		switch {
		case rec.MissingAlt():
			counts.Empty++
		case rec.Decorative():
			counts.Decorative++
		default:
			counts.Filled++
		}
		if rec.Orientation != "" {
			counts.ByOrientation[rec.Orientation]++
		}
		if rec.Type != "" {
			counts.ByType[rec.Type]++
		}
	}
	return counts, nil
}

func (r *Relational) DeleteHashes(ctx context.Context, siteKey string, hashes []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	site := r.sites[siteKey]
	var deleted int64
	for _, h := range hashes {
		if _, ok := site[h]; ok {
			delete(site, h)
			deleted++
		}
	}
	return deleted, nil
}

func (r *Relational) HashesBySite(ctx context.Context, siteKey string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hashes := make([]string, 0, len(r.sites[siteKey]))
	for h := range r.sites[siteKey] {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes, nil
}

func (r *Relational) ListSites(ctx context.Context, limit int) ([]models.SiteInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	var sites []models.SiteInfo
	for key, recs := range r.sites {
		if len(recs) == 0 {
			continue
		}
		info := models.SiteInfo{SiteKey: key, Count: int64(len(recs))}
		for _, rec := range recs {
			if rec.IndexedAt.After(info.LastIndexed) {
				info.LastIndexed = rec.IndexedAt
			}
		}
		sites = append(sites, info)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].Count > sites[j].Count })
	if len(sites) > limit {
		sites = sites[:limit]
	}
	return sites, nil
}

func (r *Relational) Ping(ctx context.Context) error { return nil }

// Vector is an in-memory vector.Store using exact cosine distance.
type Vector struct {
	mu    sync.RWMutex
	sites map[string]map[string]vector.Document // siteKey -> id -> doc
}

// NewVector creates an empty in-memory vector store.
func NewVector() *Vector {
	return &Vector{sites: make(map[string]map[string]vector.Document)}
}

func (v *Vector) Upsert(ctx context.Context, docs []vector.Document) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, doc := range docs {
		site, ok := v.sites[doc.SiteKey]
		if !ok {
			site = make(map[string]vector.Document)
			v.sites[doc.SiteKey] = site
		}
		site[doc.ID] = doc
	}
	return nil
}

func (v *Vector) Query(ctx context.Context, siteKey string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	var results []vector.QueryResult
	for _, doc := range v.sites[siteKey] {
		d := cosineDistance(embedding, doc.Embedding)
		results = append(results, vector.QueryResult{
			ID:         doc.ID,
			Distance:   d,
			Similarity: vector.DistanceToSimilarity(d),
			SiteKey:    doc.SiteKey,
			URL:        doc.URL,
			PageURL:    doc.PageURL,
			Alt:        doc.Alt,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (v *Vector) Delete(ctx context.Context, siteKey string, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	site := v.sites[siteKey]
	for _, id := range ids {
		delete(site, id)
	}
	return nil
}

// cosineDistance returns 1 - cosine similarity. Mismatched or zero
// vectors get the maximum distance.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// cacheEntry is one TTL-bounded cache value.
type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-memory cache.Store with per-entry TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, cache.ErrMiss
	}
	return entry.value, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error { return nil }

// Compile-time checks.
var (
	_ db.RelationalStore = (*Relational)(nil)
	_ vector.Store       = (*Vector)(nil)
	_ cache.Store        = (*Cache)(nil)
)
