// Package db defines the relational store contract for media records.
package db

import (
	"context"
	"errors"

	"github.com/thebtf/medialens/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// AltState selects records by the state of their alt attribute.
type AltState string

const (
	AltAny        AltState = ""
	AltMissing    AltState = "missing"
	AltDecorative AltState = "decorative"
	AltFilled     AltState = "filled"
)

// ListFilter narrows listing and counting queries.
// Zero values mean "no constraint".
type ListFilter struct {
	AltState    AltState
	Orientation string
	TypePrefix  string // matches the start of the hierarchical type tag, e.g. "img"
	Format      string // matches the format suffix of the type tag, e.g. "png"
	Lazy        *bool
	Limit       int
}

// RelationalStore is the keyed media-record table.
// All implementations must treat (siteKey, hash) as the unique identity:
// UpsertBatch overwrites in place and never duplicates.
type RelationalStore interface {
	UpsertBatch(ctx context.Context, records []models.MediaRecord) error
	Count(ctx context.Context, siteKey string, f ListFilter) (int64, error)
	List(ctx context.Context, siteKey string, f ListFilter) ([]models.MediaRecord, error)
	FilterCounts(ctx context.Context, siteKey string) (*models.FilterCounts, error)
	DeleteHashes(ctx context.Context, siteKey string, hashes []string) (int64, error)
	HashesBySite(ctx context.Context, siteKey string) ([]string, error)
	ListSites(ctx context.Context, limit int) ([]models.SiteInfo, error)
	Ping(ctx context.Context) error
}
