package analyze

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/thebtf/medialens/pkg/models"
)

// maxSurroundingChars bounds how much surrounding text is extracted.
const maxSurroundingChars = 300

// landmarkTags are the sectioning elements reported as the enclosing
// landmark, innermost first.
var landmarkTags = map[string]bool{
	"main": true, "nav": true, "header": true, "footer": true,
	"aside": true, "article": true, "section": true, "figure": true,
}

// blockTags are the elements whose text is treated as the image's
// immediate surrounding context.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "td": true, "figure": true,
	"section": true, "article": true,
}

// headingTags are the heading elements tracked for "nearest heading".
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// locateImage parses page HTML and finds the occurrence-th <img> whose
// src matches imageURL (1-based). Returns the extracted context, whether
// the occurrence carries an alt attribute at all, and the total number
// of matching occurrences; found is false when the index is out of
// range or the image does not appear at all.
func locateImage(pageHTML, imageURL string, occurrence int) (pc models.PageContext, hasAlt bool, total int, found bool) {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		// html.Parse is lenient; an error here means unreadable input.
		return models.PageContext{}, false, 0, false
	}

	var (
		lastHeading string
		ancestors   []*html.Node
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if headingTags[n.Data] {
				lastHeading = collapseText(nodeText(n))
			}
			if n.Data == "img" && matchesSrc(attr(n, "src"), imageURL) {
				total++
				if total == occurrence {
					found = true
					hasAlt = attrExists(n, "alt")
					pc = extractContext(n, ancestors, lastHeading)
				}
			}
			ancestors = append(ancestors, n)
			defer func() { ancestors = ancestors[:len(ancestors)-1] }()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return pc, hasAlt, total, found
}

// matchesSrc reports whether an img src refers to the requested image.
// Crawled records may store absolute URLs while the page uses relative
// ones, so suffix matches in either direction count.
func matchesSrc(src, imageURL string) bool {
	if src == "" || imageURL == "" {
		return false
	}
	if src == imageURL {
		return true
	}
	return strings.HasSuffix(imageURL, src) || strings.HasSuffix(src, imageURL)
}

// extractContext builds the PageContext for a located img node.
func extractContext(img *html.Node, ancestors []*html.Node, lastHeading string) models.PageContext {
	pc := models.PageContext{
		CurrentAlt:     attr(img, "alt"),
		NearestHeading: lastHeading,
	}

	// Walk ancestors innermost-out for the landmark, the surrounding
	// text block, and an enclosing figure with a figcaption.
	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		if pc.Landmark == "" && landmarkTags[a.Data] {
			pc.Landmark = a.Data
		}
		if pc.SurroundingText == "" && blockTags[a.Data] {
			pc.SurroundingText = truncate(collapseText(nodeText(a)), maxSurroundingChars)
		}
		if a.Data == "figure" && hasChild(a, "figcaption") {
			pc.HasFigcaption = true
		}
	}
	return pc
}

// attrExists reports whether a named attribute is present, even empty.
func attrExists(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// attr returns the value of a named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates all text content under a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// hasChild reports whether a node has a direct or nested child element
// with the given tag.
func hasChild(n *html.Node, tag string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return true
		}
		if hasChild(c, tag) {
			return true
		}
	}
	return false
}

// collapseText normalizes whitespace runs into single spaces.
func collapseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate caps a string at n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
