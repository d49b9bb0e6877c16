// Package models defines the shared domain types for medialens.
package models

import "time"

// MediaRecord is one observed occurrence of a media asset on a page.
// (SiteKey, Hash) is unique; re-ingesting the same hash overwrites in place.
type MediaRecord struct {
	Hash          string    `json:"hash" gorm:"primaryKey;column:hash"`
	SiteKey       string    `json:"siteKey" gorm:"primaryKey;column:site_key"`
	URL           string    `json:"url" gorm:"column:url"`
	PageURL       string    `json:"pageUrl" gorm:"column:page_url"`
	Type          string    `json:"type" gorm:"column:type"`
	Alt           *string   `json:"alt" gorm:"column:alt"`
	Width         int       `json:"width" gorm:"column:width"`
	Height        int       `json:"height" gorm:"column:height"`
	Orientation   string    `json:"orientation" gorm:"column:orientation"`
	Category      string    `json:"category" gorm:"column:category"`
	Loading       string    `json:"loading" gorm:"column:loading"`
	FetchPriority string    `json:"fetchPriority" gorm:"column:fetch_priority"`
	IsLazyLoaded  bool      `json:"isLazyLoaded" gorm:"column:is_lazy_loaded"`
	Role          string    `json:"role" gorm:"column:role"`
	AriaHidden    bool      `json:"ariaHidden" gorm:"column:aria_hidden"`
	ParentTag     string    `json:"parentTag" gorm:"column:parent_tag"`
	HasFigcaption bool      `json:"hasFigcaption" gorm:"column:has_figcaption"`
	IndexedAt     time.Time `json:"indexedAt" gorm:"column:indexed_at"`
}

func (MediaRecord) TableName() string { return "media_records" }

// MissingAlt reports whether the record has no alt attribute at all.
// A nil Alt means "missing"; an empty string means "intentionally decorative".
func (m *MediaRecord) MissingAlt() bool { return m.Alt == nil }

// Decorative reports whether the record carries an explicit empty alt.
func (m *MediaRecord) Decorative() bool { return m.Alt != nil && *m.Alt == "" }

// FilledAlt reports whether the record carries non-empty descriptive alt text.
func (m *MediaRecord) FilledAlt() bool { return m.Alt != nil && *m.Alt != "" }

// AltText returns the alt text, or "" when the attribute is absent.
func (m *MediaRecord) AltText() string {
	if m.Alt == nil {
		return ""
	}
	return *m.Alt
}

// FilterCounts is the full alt-text breakdown for a site.
// Empty + Decorative + Filled always equals Images.
type FilterCounts struct {
	Images        int64            `json:"images"`
	Empty         int64            `json:"empty"`
	Decorative    int64            `json:"decorative"`
	Filled        int64            `json:"filled"`
	ByOrientation map[string]int64 `json:"byOrientation,omitempty"`
	ByType        map[string]int64 `json:"byType,omitempty"`
}

// SiteInfo summarizes one indexed site.
type SiteInfo struct {
	SiteKey     string    `json:"site_key"`
	Count       int64     `json:"count"`
	LastIndexed time.Time `json:"last_indexed"`
}
