package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thebtf/medialens/pkg/models"
)

func TestAccessibilityScore(t *testing.T) {
	assert.Equal(t, 60, accessibilityScore(false, ""))
	assert.Equal(t, 100, accessibilityScore(true, ""), "decorative empty alt is not penalized")
	assert.Equal(t, 90, accessibilityScore(true, "img"), "short alt is weak")
	assert.Equal(t, 90, accessibilityScore(true, "photo-2024-final.jpg"), "filename alt is weak")
	assert.Equal(t, 100, accessibilityScore(true, "a lighthouse at dusk"))
}

func TestWeakAlt(t *testing.T) {
	assert.False(t, weakAlt(""))
	assert.True(t, weakAlt("img"))
	assert.True(t, weakAlt("DSC_0042.jpg"))
	assert.False(t, weakAlt("a red bicycle"))
}

func TestSEOScore(t *testing.T) {
	keywords := []string{"jacket", "spring"}

	assert.Equal(t, 50, seoScore("unrelated text", nil, false, false))
	assert.Equal(t, 70, seoScore("green spring jacket", keywords, false, false))
	assert.Equal(t, 90, seoScore("green spring jacket", keywords, true, true))
}

func TestComputeImpactMissingAlt(t *testing.T) {
	pc := models.PageContext{NearestHeading: "Spring Collection"}
	keywords := []string{"spring", "jacket"}

	impact := computeImpact(pc, false, "green spring jacket on a hook", keywords)

	assert.Equal(t, 60, impact.AccessibilityBefore)
	assert.Equal(t, 90, impact.AccessibilityAfter)
	assert.Equal(t, 30, impact.AccessibilityDelta)
	assert.Equal(t, 60, impact.SEOBefore)
	assert.Equal(t, 80, impact.SEOAfter)
	assert.Equal(t, 20, impact.SEODelta)
}

func TestComputeImpactCapsAccessibilityAtHundred(t *testing.T) {
	pc := models.PageContext{CurrentAlt: "a perfectly good description"}

	impact := computeImpact(pc, true, "another fine description", nil)

	assert.Equal(t, 100, impact.AccessibilityBefore)
	assert.Equal(t, 100, impact.AccessibilityAfter)
	assert.Zero(t, impact.AccessibilityDelta)
}

func TestComputeImpactSEONeverRegresses(t *testing.T) {
	// Current alt already hits the keywords; the suggestion does not.
	pc := models.PageContext{CurrentAlt: "spring jacket"}
	keywords := []string{"spring"}

	impact := computeImpact(pc, true, "outerwear on a hook", keywords)

	assert.Equal(t, impact.SEOBefore, impact.SEOAfter)
	assert.Zero(t, impact.SEODelta)
}
