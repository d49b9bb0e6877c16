package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/medialens/internal/db"
)

// The registry and definition tables must cover exactly AllTools, in
// both directions. A tool present in one table but not the other would
// be offered to the model and then fail to dispatch, or vice versa.
func TestToolTablesCoverAllTools(t *testing.T) {
	assert.Len(t, toolRegistry, len(AllTools))
	assert.Len(t, toolDefinitions, len(AllTools))

	for _, name := range AllTools {
		_, ok := toolRegistry[name]
		assert.True(t, ok, "tool %q missing from registry", name)

		def, ok := toolDefinitions[name]
		assert.True(t, ok, "tool %q missing from definitions", name)
		assert.Equal(t, string(name), def.Name)
		assert.NotEmpty(t, def.Description, "tool %q has no description", name)
	}
}

func TestToolDefsPreserveOrder(t *testing.T) {
	defs := toolDefs()
	require.Len(t, defs, len(AllTools))
	for i, name := range AllTools {
		assert.Equal(t, string(name), defs[i].Name)
	}
}

func TestAltStateFromFilter(t *testing.T) {
	assert.Equal(t, db.AltMissing, altStateFromFilter("missing"))
	assert.Equal(t, db.AltDecorative, altStateFromFilter("decorative"))
	assert.Equal(t, db.AltFilled, altStateFromFilter("filled"))
	assert.Equal(t, db.AltAny, altStateFromFilter("all"))
	assert.Equal(t, db.AltAny, altStateFromFilter(""))
	assert.Equal(t, db.AltAny, altStateFromFilter("garbage"))
}

func TestToolCountImagesWithFilter(t *testing.T) {
	r := seedResolver(t)

	res, err := toolRegistry[ToolCountImages](context.Background(), r, "site-a", toolArgs{Filter: "missing"})
	require.NoError(t, err)
	assert.Equal(t, KindCount, res.Kind)
	assert.Equal(t, int64(1), res.Count)
	assert.Equal(t, "images missing alt text", res.Label)
}

func TestToolCountByOrientation(t *testing.T) {
	r := seedResolver(t)

	res, err := toolRegistry[ToolCountByOrientation](context.Background(), r, "site-a", toolArgs{Orientation: "landscape"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
}

func TestToolGetFilterCounts(t *testing.T) {
	r := seedResolver(t)

	res, err := toolRegistry[ToolGetFilterCounts](context.Background(), r, "site-a", toolArgs{})
	require.NoError(t, err)
	assert.Equal(t, KindBreakdown, res.Kind)
	require.NotNil(t, res.Counts)
	assert.Equal(t, int64(3), res.Counts.Images)
}
