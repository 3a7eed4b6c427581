package testutil

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"

	"scosmb-portal/pkg/config"
)

// NewSnowflakeNode returns an ID generator for tests.
func NewSnowflakeNode(t *testing.T) *snowflake.Node {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	return node
}

// NewConfig returns a config carrying the defaults the services expect.
func NewConfig() *config.Config {
	cfg := &config.Config{}
	cfg.License.DefaultMaxDownloads = 3
	cfg.Session.Name = "sco_portal_session"
	cfg.Session.TTL = time.Hour
	return cfg
}
