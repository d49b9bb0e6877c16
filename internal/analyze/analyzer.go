package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/cache"
	"github.com/thebtf/medialens/internal/inference"
	"github.com/thebtf/medialens/pkg/models"
)

// ErrImageNotFound is returned when the image or occurrence index does
// not exist on the page.
var ErrImageNotFound = errors.New("image occurrence not found on page")

// UpstreamError wraps a failure of an external collaborator (page fetch
// or inference service).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// synthesizedConfidence is the confidence assigned to results recovered
// from unparseable model output.
const synthesizedConfidence = 0.3

// Request identifies one image occurrence to analyze.
type Request struct {
	ImageURL   string `json:"imageUrl"`
	PageURL    string `json:"pageUrl"`
	Occurrence int    `json:"occurrence"`
	SiteKey    string `json:"siteKey"`
}

// CacheKey is deterministic over all four identifying fields.
func (r Request) CacheKey() string {
	return fmt.Sprintf("analysis:%s:%s:%s:%d", r.SiteKey, r.PageURL, r.ImageURL, r.Occurrence)
}

// Analyzer produces and memoizes per-occurrence alt-text suggestions.
type Analyzer struct {
	cache     cache.Store
	inference inference.Service
	fetcher   Fetcher
	ttl       time.Duration
}

// NewAnalyzer creates a deep-analysis service.
func NewAnalyzer(cacheStore cache.Store, inf inference.Service, fetcher Fetcher, ttl time.Duration) *Analyzer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Analyzer{cache: cacheStore, inference: inf, fetcher: fetcher, ttl: ttl}
}

// Analyze returns the cached result for the occurrence, or computes,
// caches, and returns a fresh one.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*models.AnalysisResult, error) {
	key := req.CacheKey()
	if data, err := a.cache.Get(ctx, key); err == nil {
		var cached models.AnalysisResult
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
		log.Warn().Str("key", key).Msg("Corrupt analysis cache entry, recomputing")
	}

	pageHTML, err := a.fetcher.Fetch(ctx, req.PageURL)
	if err != nil {
		return nil, &UpstreamError{Op: "fetch page", Err: err}
	}

	pc, hadAlt, total, found := locateImage(pageHTML, req.ImageURL, req.Occurrence)
	if !found {
		return nil, ErrImageNotFound
	}

	keywords := deriveKeywords(pc, req.ImageURL)

	raw, err := a.inference.Complete(ctx, suggestionSystemPrompt, buildSuggestionPrompt(req, pc, keywords))
	if err != nil {
		return nil, &UpstreamError{Op: "suggestion completion", Err: err}
	}

	suggestion := parseSuggestion(raw)

	result := &models.AnalysisResult{
		SuggestedAlt:     suggestion.SuggestedAlt,
		Reasoning:        suggestion.Reasoning,
		WCAGCompliance:   suggestion.WCAGCompliance,
		Type:             suggestion.Type,
		Keywords:         keywords,
		Confidence:       suggestion.Confidence,
		Impact:           computeImpact(pc, hadAlt, suggestion.SuggestedAlt, keywords),
		PageContext:      pc,
		Occurrence:       req.Occurrence,
		TotalOccurrences: total,
	}

	if data, err := json.Marshal(result); err == nil {
		if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache analysis result")
		}
	}
	return result, nil
}

// suggestionSystemPrompt encodes the WCAG 1.1.1 and SEO guidance for
// alt-text suggestions.
const suggestionSystemPrompt = `You write alternative text for website images.
Follow WCAG 1.1.1 (Non-text Content): describe the information the image
conveys, not its appearance; do not start with "image of" or "picture of";
keep it under 125 characters; use an empty string only for purely
decorative images. Where it reads naturally, include the page's topical
keywords to support SEO, but never stuff keywords.

Reply with a single JSON object:
{"suggestedAlt": "...", "reasoning": "...", "wcagCompliance": "1.1.1",
 "type": "informative|decorative|functional", "confidence": 0.0-1.0}`

// buildSuggestionPrompt renders the per-image analysis prompt.
func buildSuggestionPrompt(req Request, pc models.PageContext, keywords []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Image: %s\nPage: %s\n", req.ImageURL, req.PageURL)
	if pc.CurrentAlt != "" {
		fmt.Fprintf(&b, "Current alt text: %q\n", pc.CurrentAlt)
	} else {
		b.WriteString("Current alt text: none\n")
	}
	if pc.NearestHeading != "" {
		fmt.Fprintf(&b, "Nearest heading: %q\n", pc.NearestHeading)
	}
	if pc.Landmark != "" {
		fmt.Fprintf(&b, "Enclosing section: %s\n", pc.Landmark)
	}
	if pc.SurroundingText != "" {
		fmt.Fprintf(&b, "Surrounding text: %q\n", pc.SurroundingText)
	}
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Topical keywords: %s\n", strings.Join(keywords, ", "))
	}
	return b.String()
}

// modelSuggestion is the JSON shape expected from the model.
type modelSuggestion struct {
	SuggestedAlt   string  `json:"suggestedAlt"`
	Reasoning      string  `json:"reasoning"`
	WCAGCompliance string  `json:"wcagCompliance"`
	Type           string  `json:"type"`
	Confidence     float64 `json:"confidence"`
}

// parseSuggestion decodes the model's reply defensively: it tolerates
// prose around the JSON object, and on parse failure synthesizes a
// minimal low-confidence result from the raw text instead of failing.
func parseSuggestion(raw string) modelSuggestion {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		var s modelSuggestion
		if err := json.Unmarshal([]byte(raw[start:end+1]), &s); err == nil && s.SuggestedAlt != "" {
			if s.WCAGCompliance == "" {
				s.WCAGCompliance = "1.1.1"
			}
			return s
		}
	}
	return modelSuggestion{
		SuggestedAlt:   truncate(collapseText(raw), 120),
		Reasoning:      "recovered from unstructured model output",
		WCAGCompliance: "1.1.1",
		Type:           "informative",
		Confidence:     synthesizedConfidence,
	}
}
