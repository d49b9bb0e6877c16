// Package deletion keeps the relational and vector stores in agreement
// when records are removed.
package deletion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/vector"
)

// Manager performs the two-step delete protocol: relational store
// first, then the same id set from the vector store. A vector-store
// failure after a successful relational delete leaves orphaned
// embeddings; the error is surfaced so callers can retry.
type Manager struct {
	store   db.RelationalStore
	vectors vector.Store
}

// NewManager creates a deletion manager.
func NewManager(store db.RelationalStore, vectors vector.Store) *Manager {
	return &Manager{store: store, vectors: vectors}
}

// DeleteHashes removes a specific set of hashes from both stores.
// Returns the number of relational rows deleted even when the vector
// delete fails.
func (m *Manager) DeleteHashes(ctx context.Context, siteKey string, hashes []string) (int64, error) {
	deleted, err := m.store.DeleteHashes(ctx, siteKey, hashes)
	if err != nil {
		return 0, fmt.Errorf("relational delete: %w", err)
	}

	if m.vectors != nil {
		if err := m.vectors.Delete(ctx, siteKey, hashes); err != nil {
			log.Warn().Err(err).Str("siteKey", siteKey).Int("hashes", len(hashes)).
				Msg("Vector delete failed after relational delete, embeddings orphaned")
			return deleted, fmt.Errorf("vector delete: %w", err)
		}
	}

	log.Info().Str("siteKey", siteKey).Int64("deleted", deleted).Msg("Hashes deleted")
	return deleted, nil
}

// ClearSite removes every record belonging to a site from both stores.
// The hash set is read first because the vector store has no
// delete-by-site primitive.
func (m *Manager) ClearSite(ctx context.Context, siteKey string) (int64, error) {
	hashes, err := m.store.HashesBySite(ctx, siteKey)
	if err != nil {
		return 0, fmt.Errorf("read site hashes: %w", err)
	}
	if len(hashes) == 0 {
		return 0, nil
	}
	return m.DeleteHashes(ctx, siteKey, hashes)
}
