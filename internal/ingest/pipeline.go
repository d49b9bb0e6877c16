// Package ingest provides the batch ingestion pipeline: validation,
// chunked relational upserts, and derived embedding writes.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/inference"
	"github.com/thebtf/medialens/internal/vector"
	"github.com/thebtf/medialens/pkg/models"
)

const (
	// MaxReportedFields caps how many offending field paths a
	// validation error enumerates.
	MaxReportedFields = 10

	// embedConcurrency bounds the per-chunk embedding fan-out.
	embedConcurrency = 8
)

// ValidationError reports malformed input with field-level detail.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Fields, ", "))
}

// ChunkError reports a failed relational write for one chunk. Prior
// chunks are not rolled back; the caller sees partial-success counts.
type ChunkError struct {
	Chunk      int
	Size       int
	SampleHash string
	Err        error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%d records, sample hash %q): %v",
		e.Chunk, e.Size, e.SampleHash, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Result summarizes one ingestion request.
type Result struct {
	Indexed    int `json:"indexed"`
	Embeddings int `json:"embeddings"`
	Chunks     int `json:"chunks"`
}

// Pipeline ingests media-record batches into the relational and vector stores.
type Pipeline struct {
	store     db.RelationalStore
	vectors   vector.Store
	inference inference.Service // nil disables embedding derivation
	chunkSize int
}

// NewPipeline creates an ingestion pipeline. A nil inference service
// skips embedding derivation entirely.
func NewPipeline(store db.RelationalStore, vectors vector.Store, inf inference.Service, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Pipeline{store: store, vectors: vectors, inference: inf, chunkSize: chunkSize}
}

// Validate checks a batch and returns a ValidationError enumerating up
// to MaxReportedFields offending field paths.
func Validate(siteKey string, batch []models.MediaRecord) error {
	var fields []string
	if siteKey == "" {
		fields = append(fields, "siteKey")
	}
	if len(batch) == 0 {
		fields = append(fields, "batch")
	}
	for i := range batch {
		if len(fields) >= MaxReportedFields {
			break
		}
		if batch[i].Hash == "" {
			fields = append(fields, fmt.Sprintf("batch[%d].hash", i))
		}
		if batch[i].URL == "" {
			fields = append(fields, fmt.Sprintf("batch[%d].url", i))
		}
		if batch[i].PageURL == "" {
			fields = append(fields, fmt.Sprintf("batch[%d].pageUrl", i))
		}
	}
	if len(fields) > MaxReportedFields {
		fields = fields[:MaxReportedFields]
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Ingest validates and writes a batch. Chunks are processed
// sequentially; a chunk failure aborts the rest but keeps prior chunks
// (the partial Result is returned alongside the ChunkError).
func (p *Pipeline) Ingest(ctx context.Context, siteKey string, batch []models.MediaRecord) (*Result, error) {
	if err := Validate(siteKey, batch); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range batch {
		batch[i].SiteKey = siteKey
		if batch[i].IndexedAt.IsZero() {
			batch[i].IndexedAt = now
		}
	}

	result := &Result{}
	for start := 0; start < len(batch); start += p.chunkSize {
		end := min(start+p.chunkSize, len(batch))
		chunk := batch[start:end]
		result.Chunks++

		if err := p.store.UpsertBatch(ctx, chunk); err != nil {
			return result, &ChunkError{
				Chunk:      result.Chunks,
				Size:       len(chunk),
				SampleHash: chunk[0].Hash,
				Err:        err,
			}
		}
		result.Indexed += len(chunk)

		result.Embeddings += p.embedChunk(ctx, chunk)
	}

	log.Info().
		Str("siteKey", siteKey).
		Int("indexed", result.Indexed).
		Int("embeddings", result.Embeddings).
		Int("chunks", result.Chunks).
		Msg("Batch ingested")

	return result, nil
}

// embedChunk derives embeddings for the chunk's records with non-empty
// alt text and upserts the successes. Individual embedding failures are
// dropped; a vector-store failure drops the whole chunk's embeddings
// but never fails ingestion.
func (p *Pipeline) embedChunk(ctx context.Context, chunk []models.MediaRecord) int {
	if p.inference == nil || p.vectors == nil {
		return 0
	}

	eligible := make([]*models.MediaRecord, 0, len(chunk))
	for i := range chunk {
		if chunk[i].FilledAlt() {
			eligible = append(eligible, &chunk[i])
		}
	}
	if len(eligible) == 0 {
		return 0
	}

	var mu sync.Mutex
	docs := make([]vector.Document, 0, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for _, rec := range eligible {
		rec := rec
		g.Go(func() error {
			emb, err := p.inference.Embed(gctx, rec.AltText())
			if err != nil {
				log.Debug().Err(err).Str("hash", rec.Hash).Msg("Embedding failed, skipping record")
				return nil
			}
			mu.Lock()
			docs = append(docs, vector.Document{
				ID:        rec.Hash,
				SiteKey:   rec.SiteKey,
				Embedding: emb,
				URL:       rec.URL,
				PageURL:   rec.PageURL,
				Alt:       rec.AltText(),
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(docs) == 0 {
		return 0
	}
	if err := p.vectors.Upsert(ctx, docs); err != nil {
		log.Warn().Err(err).Int("count", len(docs)).Msg("Vector upsert failed, embeddings dropped")
		return 0
	}
	return len(docs)
}
