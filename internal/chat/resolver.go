package chat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/inference"
	"github.com/thebtf/medialens/internal/vector"
	"github.com/thebtf/medialens/pkg/models"
)

const (
	// historyTurns is how many prior conversation turns accompany the
	// tool-calling request.
	historyTurns = 4

	// semanticTopK is the nearest-neighbor result count for the
	// vector-search fallback.
	semanticTopK = 8
)

// Resolver runs the staged fallback chain over a single query. Stages
// run strictly in order and the first successful stage is terminal.
type Resolver struct {
	store     db.RelationalStore
	vectors   vector.Store
	inference inference.Service // nil disables tool-calling and semantic search
}

// NewResolver creates a query resolver.
func NewResolver(store db.RelationalStore, vectors vector.Store, inf inference.Service) *Resolver {
	return &Resolver{store: store, vectors: vectors, inference: inf}
}

// Resolve walks the fallback chain. It never returns an error: every
// stage failure falls through, and the final stage is a canned message.
func (r *Resolver) Resolve(ctx context.Context, siteKey, query string, history []inference.Message) *Resolution {
	// Stage 1: greeting/help short-circuit.
	if greetingPattern.MatchString(query) {
		return message(capabilitySummary)
	}

	// Stage 2: tool-calling. Inference failures are treated as
	// "no tool call" and never surface to the caller.
	if res := r.resolveToolCall(ctx, siteKey, query, history); res != nil {
		return res
	}

	// Stage 3: ordered pattern matching.
	if res := r.matchPattern(ctx, siteKey, query); res != nil {
		return res
	}

	// Stage 4: semantic similarity search, gated on content keywords.
	if res := r.resolveSemantic(ctx, siteKey, query); res != nil {
		return res
	}

	// Stage 5: no match.
	return message(noMatchMessage)
}

// resolveToolCall asks the model to select a query tool and dispatches
// it through the registry.
func (r *Resolver) resolveToolCall(ctx context.Context, siteKey, query string, history []inference.Message) *Resolution {
	if r.inference == nil {
		return nil
	}

	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	call, err := r.inference.ChatWithTools(ctx, systemPrompt, history, query, toolDefs())
	if err != nil {
		log.Warn().Err(err).Msg("Tool-calling failed, falling through to pattern matching")
		return nil
	}
	if call == nil {
		return nil
	}

	handler, ok := toolRegistry[ToolName(call.Name)]
	if !ok {
		log.Warn().Str("tool", call.Name).Msg("Model selected unknown tool, falling through")
		return nil
	}

	var args toolArgs
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			log.Warn().Err(err).Str("tool", call.Name).Msg("Bad tool arguments, falling through")
			return nil
		}
	}

	res, err := handler(ctx, r, siteKey, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("Tool handler failed, falling through")
		return nil
	}
	return res
}

// resolveSemantic embeds the query and runs a nearest-neighbor search,
// hydrating results from the vector store's metadata mirror.
func (r *Resolver) resolveSemantic(ctx context.Context, siteKey, query string) *Resolution {
	if r.inference == nil || r.vectors == nil || !hasSemanticKeyword(query) {
		return nil
	}

	emb, err := r.inference.Embed(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("Query embedding failed, falling through")
		return nil
	}

	results, err := r.vectors.Query(ctx, siteKey, emb, semanticTopK)
	if err != nil {
		log.Warn().Err(err).Msg("Vector query failed, falling through")
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	records := make([]models.MediaRecord, len(results))
	for i, qr := range results {
		alt := qr.Alt
		records[i] = models.MediaRecord{
			Hash:    qr.ID,
			SiteKey: qr.SiteKey,
			URL:     qr.URL,
			PageURL: qr.PageURL,
			Alt:     &alt,
		}
	}
	return &Resolution{Kind: KindList, Tool: "semanticSearch", Records: records}
}

// hasSemanticKeyword reports whether the query mentions image content.
func hasSemanticKeyword(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range semanticKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// logPatternError records a pattern-handler failure without surfacing it.
func logPatternError(rule string, err error) {
	log.Warn().Err(err).Str("rule", rule).Msg("Pattern handler failed, falling through")
}
