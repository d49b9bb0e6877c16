// Package vector defines the vector store contract for media embeddings.
package vector

import "context"

// Document is one embedded media record. The metadata mirror lets search
// results be hydrated without a relational join.
type Document struct {
	ID        string // media record hash
	SiteKey   string
	Embedding []float32
	URL       string
	PageURL   string
	Alt       string
}

// QueryResult is one nearest-neighbor match.
type QueryResult struct {
	ID         string
	Distance   float64
	Similarity float64
	SiteKey    string
	URL        string
	PageURL    string
	Alt        string
}

// Store is a nearest-neighbor index over fixed-length embeddings.
// Documents are keyed by (siteKey, id); upserts overwrite in place.
type Store interface {
	Upsert(ctx context.Context, docs []Document) error
	Query(ctx context.Context, siteKey string, embedding []float32, topK int) ([]QueryResult, error)
	Delete(ctx context.Context, siteKey string, ids []string) error
}

// DistanceToSimilarity converts a cosine distance into a 0..1 similarity.
func DistanceToSimilarity(distance float64) float64 {
	s := 1 - distance
	if s < 0 {
		return 0
	}
	return s
}
