package analyze

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/thebtf/medialens/pkg/models"
)

const (
	accessibilityBase   = 100
	missingAltPenalty   = 40
	weakAltPenalty      = 10
	suggestionBonus     = 30
	seoBase             = 50
	seoKeywordBonus     = 20
	seoHeadingBonus     = 10
	seoFigcaptionBonus  = 10
	weakAltMinRunes     = 5
)

// filenameLike matches alt text that is just a file name.
var filenameLike = regexp.MustCompile(`(?i)\.(?:png|jpe?g|gif|webp|svg|avif)$`)

// accessibilityScore rates an image's current alt state. hasAlt is
// false when the attribute is absent entirely.
func accessibilityScore(hasAlt bool, alt string) int {
	score := accessibilityBase
	if !hasAlt {
		return score - missingAltPenalty
	}
	if weakAlt(alt) {
		return score - weakAltPenalty
	}
	return score
}

// weakAlt reports whether existing alt text is too short or looks like
// a file name rather than a description. Empty alt is deliberate
// (decorative) and not weak.
func weakAlt(alt string) bool {
	if alt == "" {
		return false
	}
	if utf8.RuneCountInString(alt) < weakAltMinRunes {
		return true
	}
	return filenameLike.MatchString(alt)
}

// seoScore rates how well alt text supports the page's topical keywords.
func seoScore(alt string, keywords []string, nearHeading, hasFigcaption bool) int {
	score := seoBase
	if altMentionsKeyword(alt, keywords) {
		score += seoKeywordBonus
	}
	if nearHeading {
		score += seoHeadingBonus
	}
	if hasFigcaption {
		score += seoFigcaptionBonus
	}
	return score
}

// altMentionsKeyword reports whether any derived keyword appears in the
// alt text.
func altMentionsKeyword(alt string, keywords []string) bool {
	lower := strings.ToLower(alt)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// computeImpact scores the current state against the suggested alt text.
func computeImpact(pc models.PageContext, hadAlt bool, suggestedAlt string, keywords []string) models.ImpactScores {
	nearHeading := pc.NearestHeading != ""

	accBefore := accessibilityScore(hadAlt, pc.CurrentAlt)
	accAfter := min(accessibilityBase, accBefore+suggestionBonus)

	seoBefore := seoScore(pc.CurrentAlt, keywords, nearHeading, pc.HasFigcaption)
	seoAfter := seoScore(suggestedAlt, keywords, nearHeading, pc.HasFigcaption)
	if seoAfter < seoBefore {
		seoAfter = seoBefore
	}

	return models.ImpactScores{
		AccessibilityBefore: accBefore,
		AccessibilityAfter:  accAfter,
		AccessibilityDelta:  accAfter - accBefore,
		SEOBefore:           seoBefore,
		SEOAfter:            seoAfter,
		SEODelta:            seoAfter - seoBefore,
	}
}
