// Package chat provides the conversational query resolution pipeline
// and its streaming response encoder.
package chat

import "github.com/thebtf/medialens/pkg/models"

// Kind discriminates the resolution variants. Each kind has exactly one
// rendering path in the stream encoder.
type Kind int

const (
	// KindMessage is canned or synthesized plain text.
	KindMessage Kind = iota
	// KindCount is a scalar count with a label describing what was counted.
	KindCount
	// KindList is a list of matching media records.
	KindList
	// KindBreakdown is the full filter-counts object.
	KindBreakdown
)

// Resolution is the tagged result of resolving one query. Only the
// fields relevant to Kind are populated.
type Resolution struct {
	Kind    Kind
	Tool    string // tool or rule that produced the result, "" for messages
	Text    string // KindMessage
	Count   int64  // KindCount
	Label   string // KindCount: what the count counts, e.g. "images missing alt text"
	Records []models.MediaRecord // KindList
	Counts  *models.FilterCounts // KindBreakdown
}

// message builds a plain-text resolution.
func message(text string) *Resolution {
	return &Resolution{Kind: KindMessage, Text: text}
}
