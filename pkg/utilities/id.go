package utilities

import (
	"os"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

const (
	IDStrategyKSUID     = "ksuid"
	IDStrategySnowflake = "snowflake"
)

// IDConfig selects how account ids are produced.
type IDConfig struct {
	Strategy string
	Node     int64
}

// IDConfigFromEnv reads ID_STRATEGY and SNOWFLAKE_NODE. The node defaults to 1.
func IDConfigFromEnv() IDConfig {
	strategy := strings.ToLower(os.Getenv("ID_STRATEGY"))
	if strategy == "" {
		strategy = IDStrategyKSUID
	}
	node := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			node = n
		}
	}
	return IDConfig{Strategy: strategy, Node: node}
}

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator produces stable, globally unique account ids. It is safe for
// concurrent use.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator builds a generator for cfg. A snowflake node that cannot be
// initialized falls back to KSUIDs.
func NewIDGenerator(cfg IDConfig) *IDGenerator {
	if cfg.Strategy != IDStrategySnowflake {
		return &IDGenerator{}
	}
	node, err := snowflake.NewNode(cfg.Node)
	if err != nil {
		return &IDGenerator{}
	}
	return &IDGenerator{node: node}
}

func (g *IDGenerator) NewID() string {
	if g.node == nil {
		return NewKSUID()
	}
	return g.node.Generate().String()
}
