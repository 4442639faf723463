package redis_test

import (
	"context"
	"testing"

	"github.com/lcampedelli/riposte/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Facts(t *testing.T) {
	mr, client := newTestClient(t)
	src := redis.NewSource(client, "riposte:facts")
	ctx := context.Background()

	// Nothing published yet: empty context, no error.
	facts, err := src.Facts(ctx)
	require.NoError(t, err)
	assert.Empty(t, facts)

	// A recognizer publishes raw field values.
	mr.HSet("riposte:facts",
		"health", "42",
		"enemy_visible", "true",
		"window_title", "Game - Inventory",
		"buffs", `["haste","shield"]`,
	)

	facts, err = src.Facts(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(42), facts["health"], "numeric strings decode as numbers")
	assert.Equal(t, true, facts["enemy_visible"])
	assert.Equal(t, "Game - Inventory", facts["window_title"], "non-JSON stays a raw string")
	assert.Equal(t, []any{"haste", "shield"}, facts["buffs"])
}
