package utilities

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_KSUID(t *testing.T) {
	g := NewIDGenerator(IDConfig{Strategy: IDStrategyKSUID})

	a, b := g.NewID(), g.NewID()
	assert.NotEqual(t, a, b)
	_, err := ksuid.Parse(a)
	assert.NoError(t, err)
}

func TestIDGenerator_Snowflake(t *testing.T) {
	g := NewIDGenerator(IDConfig{Strategy: IDStrategySnowflake, Node: 3})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := g.NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		parsed, err := snowflake.ParseString(id)
		require.NoError(t, err)
		assert.Equal(t, int64(3), parsed.Node())
	}
}

func TestIDGenerator_BadNodeFallsBack(t *testing.T) {
	g := NewIDGenerator(IDConfig{Strategy: IDStrategySnowflake, Node: 5000})

	_, err := ksuid.Parse(g.NewID())
	assert.NoError(t, err)
}

func TestIDConfigFromEnv(t *testing.T) {
	t.Setenv("ID_STRATEGY", "")
	t.Setenv("SNOWFLAKE_NODE", "")
	assert.Equal(t, IDConfig{Strategy: IDStrategyKSUID, Node: 1}, IDConfigFromEnv())

	t.Setenv("ID_STRATEGY", "Snowflake")
	t.Setenv("SNOWFLAKE_NODE", "7")
	assert.Equal(t, IDConfig{Strategy: IDStrategySnowflake, Node: 7}, IDConfigFromEnv())

	t.Setenv("SNOWFLAKE_NODE", "seven")
	assert.Equal(t, int64(1), IDConfigFromEnv().Node)
}
