package chat

import (
	"context"
	"fmt"

	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/inference"
)

// ToolName identifies one query tool offered to the model.
type ToolName string

const (
	ToolCountImages        ToolName = "countImages"
	ToolListImages         ToolName = "listImages"
	ToolCountByOrientation ToolName = "countByOrientation"
	ToolCountByType        ToolName = "countByType"
	ToolGetFilterCounts    ToolName = "getFilterCounts"
	ToolListByFormat       ToolName = "listByFormat"
)

// AllTools is the canonical tool list. The registry and definition
// tables below must cover exactly this set; a test enforces it so a new
// tool cannot silently fail to register.
var AllTools = []ToolName{
	ToolCountImages,
	ToolListImages,
	ToolCountByOrientation,
	ToolCountByType,
	ToolGetFilterCounts,
	ToolListByFormat,
}

// toolArgs are the decoded arguments the model may pass to any tool.
type toolArgs struct {
	Filter      string `json:"filter"`      // all, missing, decorative, filled
	Orientation string `json:"orientation"` // portrait, landscape, square
	TypePrefix  string `json:"typePrefix"`  // e.g. "img"
	Format      string `json:"format"`      // e.g. "png"
	Limit       int    `json:"limit"`
}

// altStateFromFilter maps a tool filter argument to an AltState.
func altStateFromFilter(filter string) db.AltState {
	switch filter {
	case "missing":
		return db.AltMissing
	case "decorative":
		return db.AltDecorative
	case "filled":
		return db.AltFilled
	}
	return db.AltAny
}

// countLabel describes a counted set for the one-sentence template.
func countLabel(state db.AltState) string {
	switch state {
	case db.AltMissing:
		return "images missing alt text"
	case db.AltDecorative:
		return "decorative images"
	case db.AltFilled:
		return "images with alt text"
	}
	return "images"
}

type toolHandler func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error)

// toolRegistry dispatches tool names to handlers.
var toolRegistry = map[ToolName]toolHandler{
	ToolCountImages: func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error) {
		state := altStateFromFilter(args.Filter)
		count, err := r.store.Count(ctx, siteKey, db.ListFilter{AltState: state})
		if err != nil {
			return nil, err
		}
		return &Resolution{Kind: KindCount, Tool: string(ToolCountImages), Count: count, Label: countLabel(state)}, nil
	},
	ToolListImages: func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error) {
		records, err := r.store.List(ctx, siteKey, db.ListFilter{
			AltState: altStateFromFilter(args.Filter),
			Limit:    args.Limit,
		})
		if err != nil {
			return nil, err
		}
		return &Resolution{Kind: KindList, Tool: string(ToolListImages), Records: records}, nil
	},
	ToolCountByOrientation: func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error) {
		count, err := r.store.Count(ctx, siteKey, db.ListFilter{Orientation: args.Orientation})
		if err != nil {
			return nil, err
		}
		return &Resolution{
			Kind:  KindCount,
			Tool:  string(ToolCountByOrientation),
			Count: count,
			Label: fmt.Sprintf("%s images", args.Orientation),
		}, nil
	},
	ToolCountByType: func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error) {
		count, err := r.store.Count(ctx, siteKey, db.ListFilter{TypePrefix: args.TypePrefix})
		if err != nil {
			return nil, err
		}
		return &Resolution{
			Kind:  KindCount,
			Tool:  string(ToolCountByType),
			Count: count,
			Label: fmt.Sprintf("%q media elements", args.TypePrefix),
		}, nil
	},
	ToolGetFilterCounts: func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error) {
		counts, err := r.store.FilterCounts(ctx, siteKey)
		if err != nil {
			return nil, err
		}
		return &Resolution{Kind: KindBreakdown, Tool: string(ToolGetFilterCounts), Counts: counts}, nil
	},
	ToolListByFormat: func(ctx context.Context, r *Resolver, siteKey string, args toolArgs) (*Resolution, error) {
		records, err := r.store.List(ctx, siteKey, db.ListFilter{
			Format: args.Format,
			Limit:  args.Limit,
		})
		if err != nil {
			return nil, err
		}
		return &Resolution{Kind: KindList, Tool: string(ToolListByFormat), Records: records}, nil
	},
}

// toolDefinitions are the JSON Schema definitions attached to the
// tool-calling request.
var toolDefinitions = map[ToolName]inference.ToolDef{
	ToolCountImages: {
		Name:        string(ToolCountImages),
		Description: "Count indexed images, optionally filtered by alt-text state",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filter": map[string]any{
					"type": "string",
					"enum": []string{"all", "missing", "decorative", "filled"},
				},
			},
		},
	},
	ToolListImages: {
		Name:        string(ToolListImages),
		Description: "List indexed images, optionally filtered by alt-text state",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filter": map[string]any{
					"type": "string",
					"enum": []string{"all", "missing", "decorative", "filled"},
				},
				"limit": map[string]any{"type": "integer"},
			},
		},
	},
	ToolCountByOrientation: {
		Name:        string(ToolCountByOrientation),
		Description: "Count images with a given orientation",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"orientation": map[string]any{
					"type": "string",
					"enum": []string{"portrait", "landscape", "square"},
				},
			},
			"required": []string{"orientation"},
		},
	},
	ToolCountByType: {
		Name:        string(ToolCountByType),
		Description: "Count media elements whose hierarchical type tag starts with a prefix, e.g. img or video",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"typePrefix": map[string]any{"type": "string"},
			},
			"required": []string{"typePrefix"},
		},
	},
	ToolGetFilterCounts: {
		Name:        string(ToolGetFilterCounts),
		Description: "Full breakdown of image counts by alt-text state, orientation, and type",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
	},
	ToolListByFormat: {
		Name:        string(ToolListByFormat),
		Description: "List images of a given file format, e.g. png, jpg, webp, svg",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"format": map[string]any{"type": "string"},
				"limit":  map[string]any{"type": "integer"},
			},
			"required": []string{"format"},
		},
	},
}

// toolDefs returns the definitions in AllTools order.
func toolDefs() []inference.ToolDef {
	defs := make([]inference.ToolDef, 0, len(AllTools))
	for _, name := range AllTools {
		defs = append(defs, toolDefinitions[name])
	}
	return defs
}
