// Package inference defines the contract for the external model service
// that provides chat completions, tool selection, and text embeddings.
package inference

import "context"

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ToolDef describes one callable query tool offered to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema object
}

// ToolCall is a structured function invocation selected by the model
// instead of free text.
type ToolCall struct {
	Name      string
	Arguments string // raw JSON object
}

// Service is the opaque inference collaborator.
type Service interface {
	// ChatWithTools sends the system prompt, prior turns, and the new query
	// with tool definitions attached. Returns (nil, nil) when the model
	// answered without selecting a tool.
	ChatWithTools(ctx context.Context, system string, history []Message, query string, tools []ToolDef) (*ToolCall, error)

	// Complete returns a plain chat completion for a single prompt.
	Complete(ctx context.Context, system, prompt string) (string, error)

	// Embed returns the embedding vector for a text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
