package analyze

import (
	"net/url"
	"path"
	"strings"

	"github.com/thebtf/medialens/pkg/models"
)

// maxKeywords caps the derived keyword candidate list.
const maxKeywords = 8

// stopWords are skipped during keyword derivation.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "is": {},
	"was": {}, "are": {}, "were": {}, "be": {}, "been": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "it": {},
	"its": {}, "an": {}, "a": {}, "our": {}, "your": {},
}

// deriveKeywords extracts candidate keywords from the image's structural
// context and filename, ordered by source priority: heading words first,
// then surrounding text, then filename segments.
func deriveKeywords(pc models.PageContext, imageURL string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	add := func(word string) {
		word = strings.ToLower(strings.Trim(word, `.,;:!?"'()[]`))
		if len(word) < 3 {
			return
		}
		if _, stop := stopWords[word]; stop {
			return
		}
		if _, dup := seen[word]; dup {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	for _, w := range strings.Fields(pc.NearestHeading) {
		add(w)
	}
	for _, w := range strings.Fields(pc.SurroundingText) {
		add(w)
	}
	for _, seg := range filenameSegments(imageURL) {
		add(seg)
	}

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// filenameSegments splits an image filename into word candidates,
// e.g. "red-shoe_01.png" -> ["red", "shoe", "01"].
func filenameSegments(imageURL string) []string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return nil
	}
	base := path.Base(u.Path)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
}
