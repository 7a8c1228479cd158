package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.UpstreamHost)
	assert.Equal(t, 3456, cfg.RPCPort)
	assert.Equal(t, 2345, cfg.PubPort)
	assert.True(t, cfg.Transmit)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, "127.0.0.1:3456", cfg.RPCAddr())
	assert.Equal(t, "127.0.0.1:2345", cfg.PubAddr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NRM_UPSTREAM_RPC_PORT", "9999")
	t.Setenv("NRM_TRANSMIT", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.RPCPort)
	assert.False(t, cfg.Transmit)
}
