package models

// PageContext is the structural context extracted around an image occurrence.
type PageContext struct {
	SurroundingText string `json:"surroundingText"`
	NearestHeading  string `json:"nearestHeading"`
	Landmark        string `json:"landmark"`
	CurrentAlt      string `json:"currentAlt"`
	HasFigcaption   bool   `json:"hasFigcaption"`
}

// ImpactScores holds before/after accessibility and SEO scores for a suggestion.
type ImpactScores struct {
	AccessibilityBefore int `json:"accessibilityBefore"`
	AccessibilityAfter  int `json:"accessibilityAfter"`
	AccessibilityDelta  int `json:"accessibilityDelta"`
	SEOBefore           int `json:"seoBefore"`
	SEOAfter            int `json:"seoAfter"`
	SEODelta            int `json:"seoDelta"`
}

// AnalysisResult is the memoized AI suggestion for one image occurrence.
type AnalysisResult struct {
	SuggestedAlt     string       `json:"suggestedAlt"`
	Reasoning        string       `json:"reasoning"`
	WCAGCompliance   string       `json:"wcagCompliance"`
	Type             string       `json:"type"`
	Keywords         []string     `json:"keywords"`
	Confidence       float64      `json:"confidence"`
	Impact           ImpactScores `json:"impact"`
	PageContext      PageContext  `json:"pageContext"`
	Occurrence       int          `json:"occurrence"`
	TotalOccurrences int          `json:"totalOccurrences"`
	Cached           bool         `json:"cached,omitempty"`
}
