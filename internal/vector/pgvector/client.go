// Package pgvector provides PostgreSQL+pgvector based vector storage for medialens.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"

	pgvec "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thebtf/medialens/internal/vector"
)

// vectorRow is the GORM model for the media_vectors table.
type vectorRow struct {
	SiteKey   string       `gorm:"primaryKey;column:site_key"`
	DocID     string       `gorm:"primaryKey;column:doc_id"`
	Embedding pgvec.Vector `gorm:"column:embedding"`
	URL       string       `gorm:"column:url"`
	PageURL   string       `gorm:"column:page_url"`
	Alt       string       `gorm:"column:alt"`
}

func (vectorRow) TableName() string { return "media_vectors" }

// Config holds configuration for the pgvector client.
type Config struct {
	DB         *gorm.DB // PostgreSQL GORM connection (required)
	Dimensions int      // Embedding vector length (required)
}

// Client implements vector.Store via PostgreSQL+pgvector.
type Client struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewClient creates a new pgvector client and ensures the schema exists.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("DB is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("Dimensions must be positive")
	}

	sqlDB, err := cfg.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if err := ensureSchema(cfg.DB, cfg.Dimensions); err != nil {
		return nil, err
	}

	return &Client{db: cfg.DB, sqlDB: sqlDB}, nil
}

// ensureSchema creates the extension, table, and index if missing.
func ensureSchema(db *gorm.DB, dims int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS media_vectors (
			site_key  TEXT NOT NULL,
			doc_id    TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			url       TEXT NOT NULL DEFAULT '',
			page_url  TEXT NOT NULL DEFAULT '',
			alt       TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (site_key, doc_id)
		)`, dims),
		`CREATE INDEX IF NOT EXISTS idx_media_vectors_site ON media_vectors (site_key)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}
	return nil
}

// Upsert writes documents, overwriting on (site_key, doc_id) conflicts.
func (c *Client) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([]vectorRow, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			continue
		}
		rows = append(rows, vectorRow{
			SiteKey:   doc.SiteKey,
			DocID:     doc.ID,
			Embedding: pgvec.NewVector(doc.Embedding),
			URL:       doc.URL,
			PageURL:   doc.PageURL,
			Alt:       doc.Alt,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	return c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "site_key"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"embedding", "url", "page_url", "alt",
			}),
		}).
		Create(&rows).Error
}

// Query performs a cosine-distance nearest-neighbor search scoped to a site.
func (c *Client) Query(ctx context.Context, siteKey string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if len(embedding) == 0 {
		return nil, nil
	}

	rows, err := c.sqlDB.QueryContext(ctx, `
		SELECT doc_id, url, page_url, alt, embedding <=> $1 AS distance
		FROM media_vectors
		WHERE site_key = $2
		ORDER BY distance
		LIMIT $3`,
		pgvec.NewVector(embedding), siteKey, topK)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			docID    string
			url      string
			pageURL  string
			alt      string
			distance float64
		)
		if err := rows.Scan(&docID, &url, &pageURL, &alt, &distance); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, vector.QueryResult{
			ID:         docID,
			Distance:   distance,
			Similarity: vector.DistanceToSimilarity(distance),
			SiteKey:    siteKey,
			URL:        url,
			PageURL:    pageURL,
			Alt:        alt,
		})
	}
	return results, rows.Err()
}

// Delete removes documents by id within a site.
func (c *Client) Delete(ctx context.Context, siteKey string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).
		Where("site_key = ? AND doc_id IN ?", siteKey, ids).
		Delete(&vectorRow{}).Error
}

// Compile-time check: Client must satisfy vector.Store.
var _ vector.Store = (*Client)(nil)
