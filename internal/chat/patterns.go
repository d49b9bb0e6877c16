package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/thebtf/medialens/internal/db"
)

// patternRule pairs a query regex with a deterministic handler.
type patternRule struct {
	name string
	re   *regexp.Regexp
	run  func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error)
}

// patternRules is evaluated in order and the first match wins, so order
// encodes priority: specific rules (missing alt, decorative, lazy,
// orientation, format) must precede the generic "how many images" and
// "show images" rules. Tests assert this ordering directly.
var patternRules = []patternRule{
	{
		name: "countMissingAlt",
		re:   regexp.MustCompile(`(?i)how many\b.*\b(?:missing|without|no)\b.*\balt`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			return r.countResolution(ctx, siteKey, db.ListFilter{AltState: db.AltMissing}, "countMissingAlt", "images missing alt text")
		},
	},
	{
		name: "listMissingAlt",
		re:   regexp.MustCompile(`(?i)\b(?:which|show|list|find)\b.*\b(?:missing|without|no)\b.*\balt`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			return r.listResolution(ctx, siteKey, db.ListFilter{AltState: db.AltMissing}, "listMissingAlt")
		},
	},
	{
		name: "countDecorative",
		re:   regexp.MustCompile(`(?i)how many\b.*\bdecorative`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			return r.countResolution(ctx, siteKey, db.ListFilter{AltState: db.AltDecorative}, "countDecorative", "decorative images")
		},
	},
	{
		name: "countLazy",
		re:   regexp.MustCompile(`(?i)how many\b.*\blazy`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			lazy := true
			return r.countResolution(ctx, siteKey, db.ListFilter{Lazy: &lazy}, "countLazy", "lazy-loaded images")
		},
	},
	{
		name: "countOrientation",
		re:   regexp.MustCompile(`(?i)how many\b.*\b(portrait|landscape|square)`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			orientation := strings.ToLower(m[1])
			return r.countResolution(ctx, siteKey, db.ListFilter{Orientation: orientation},
				"countOrientation", fmt.Sprintf("%s images", orientation))
		},
	},
	{
		name: "countFormat",
		re:   regexp.MustCompile(`(?i)how many\b.*\b(png|jpe?g|webp|gif|svg|avif)\b`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			format := strings.ToLower(m[1])
			return r.countResolution(ctx, siteKey, db.ListFilter{Format: format},
				"countFormat", fmt.Sprintf("%s images", format))
		},
	},
	{
		name: "filterBreakdown",
		re:   regexp.MustCompile(`(?i)\b(?:breakdown|overview|summary|stats|statistics)\b`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			counts, err := r.store.FilterCounts(ctx, siteKey)
			if err != nil {
				return nil, err
			}
			return &Resolution{Kind: KindBreakdown, Tool: "filterBreakdown", Counts: counts}, nil
		},
	},
	{
		name: "countImages",
		re:   regexp.MustCompile(`(?i)how many\b.*\b(?:images?|pictures?|photos?|media)\b`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			return r.countResolution(ctx, siteKey, db.ListFilter{}, "countImages", "images")
		},
	},
	{
		name: "listImages",
		re:   regexp.MustCompile(`(?i)\b(?:show|list)\b.*\b(?:images?|pictures?|photos?)\b`),
		run: func(ctx context.Context, r *Resolver, siteKey string, m []string) (*Resolution, error) {
			return r.listResolution(ctx, siteKey, db.ListFilter{}, "listImages")
		},
	},
}

// countResolution runs a filtered count and wraps it as a KindCount.
func (r *Resolver) countResolution(ctx context.Context, siteKey string, f db.ListFilter, tool, label string) (*Resolution, error) {
	count, err := r.store.Count(ctx, siteKey, f)
	if err != nil {
		return nil, err
	}
	return &Resolution{Kind: KindCount, Tool: tool, Count: count, Label: label}, nil
}

// listResolution runs a filtered listing and wraps it as a KindList.
func (r *Resolver) listResolution(ctx context.Context, siteKey string, f db.ListFilter, tool string) (*Resolution, error) {
	records, err := r.store.List(ctx, siteKey, f)
	if err != nil {
		return nil, err
	}
	return &Resolution{Kind: KindList, Tool: tool, Records: records}, nil
}

// matchPattern tests the query against the ordered rule table.
// Returns nil when no rule matches or the matched handler fails.
func (r *Resolver) matchPattern(ctx context.Context, siteKey, query string) *Resolution {
	for _, rule := range patternRules {
		m := rule.re.FindStringSubmatch(query)
		if m == nil {
			continue
		}
		res, err := rule.run(ctx, r, siteKey, m)
		if err != nil {
			logPatternError(rule.name, err)
			return nil
		}
		return res
	}
	return nil
}
