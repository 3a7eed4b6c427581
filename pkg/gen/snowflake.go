package gen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var Module = fx.Module("snowflake", fx.Provide(NewNode))

func NewNode() (*snowflake.Node, error) {
	// nodeID is fixed: the portal runs as a single logical writer.
	return snowflake.NewNode(1)
}
