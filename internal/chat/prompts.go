package chat

import "regexp"

// systemPrompt primes the model for tool selection over the media index.
const systemPrompt = `You are the query planner for a website media inventory.
The inventory holds one record per observed image occurrence with: url,
pageUrl, hierarchical type tag (e.g. "img > png"), alt text state
(missing / decorative / filled), width, height, orientation, loading and
lazy-loading attributes, and ARIA metadata.

When the user's question can be answered by one of the provided tools,
call that tool with precise arguments. Prefer the most specific tool.
Do not invent data; if no tool fits, answer nothing.`

// greetingPattern short-circuits conversational meta-queries before any
// model call is made.
var greetingPattern = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|help|thanks?|what can you do|who are you)\b`)

// capabilitySummary is the canned reply to greetings and help requests.
const capabilitySummary = `I can answer questions about this site's media inventory. Try asking:
- "How many images are missing alt text?"
- "Which images are missing alt text?"
- "How many portrait images are there?"
- "Show me a breakdown of the image filters"
- "Find images showing the product"`

// noMatchMessage is emitted when every resolution stage comes up empty.
const noMatchMessage = `I couldn't match that question to the media index. Here are some examples that work:
- "How many images are missing alt text?"
- "How many decorative images are there?"
- "How many png images are there?"
- "List all images"
- "Give me an image statistics overview"`

// semanticKeywords gates the vector-search fallback: only queries about
// image content are worth an embedding round-trip.
var semanticKeywords = []string{
	"product", "team", "logo", "photo", "picture", "similar",
	"showing", "banner", "hero", "icon", "person", "people",
}

// QuestionCategory groups suggested questions for the UI.
type QuestionCategory struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Questions []string `json:"questions"`
}

// SuggestedQuestions returns the static question catalog served by the
// /suggested-questions endpoint.
func SuggestedQuestions() []QuestionCategory {
	return []QuestionCategory{
		{
			ID:   "accessibility",
			Name: "Accessibility",
			Questions: []string{
				"How many images are missing alt text?",
				"Which images are missing alt text?",
				"How many decorative images are there?",
			},
		},
		{
			ID:   "inventory",
			Name: "Inventory",
			Questions: []string{
				"How many images are there in total?",
				"Give me a breakdown of the image filters",
				"How many png images are there?",
			},
		},
		{
			ID:   "layout",
			Name: "Layout & Performance",
			Questions: []string{
				"How many portrait images are there?",
				"How many images are lazy loaded?",
			},
		},
		{
			ID:   "content",
			Name: "Content Search",
			Questions: []string{
				"Find images showing the product",
				"Show me pictures of the team",
			},
		},
	}
}
