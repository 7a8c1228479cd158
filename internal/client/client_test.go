package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nrmclient "github.com/anlsys/libnrm-sub000/internal/client"
	"github.com/anlsys/libnrm-sub000/internal/dispatcher"
	"github.com/anlsys/libnrm-sub000/internal/eventbase"
	"github.com/anlsys/libnrm-sub000/internal/role"
	"github.com/anlsys/libnrm-sub000/internal/state"
	"github.com/anlsys/libnrm-sub000/internal/types"
)

func startDaemon(t *testing.T) (string, string, func()) {
	t.Helper()
	ctrl, err := role.NewControllerRole("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)

	tables := state.New()
	eb := eventbase.New(5, 10)
	d := dispatcher.New(ctrl, tables, eb, 50*time.Millisecond, dispatcher.Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	<-ctrl.Ready()

	return ctrl.RPCAddr(), ctrl.PubAddr(), cancel
}

func TestClientAddActuatorAssignsUUID(t *testing.T) {
	rpcAddr, pubAddr, stop := startDaemon(t)
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := nrmclient.New(ctx, nrmclient.Options{RPCAddr: rpcAddr, PubAddr: pubAddr, Transmit: true})
	require.NoError(t, err)

	a := types.NewDiscreteActuator("power-cap", []float64{0, 1}, 0)
	got, err := c.AddActuator(ctx, a)
	require.NoError(t, err)
	assert.NotEmpty(t, got.UUID)
}

func TestNoTransmitModeNeverDials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := nrmclient.New(ctx, nrmclient.Options{Transmit: false})
	require.NoError(t, err)

	a := types.NewDiscreteActuator("power-cap", []float64{0, 1}, 0)
	got, err := c.AddActuator(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "power-cap", got.Name)

	require.NoError(t, c.SendEvent(ctx, "sensor", "scope", 1.0))
}

func TestSendEventRateLimited(t *testing.T) {
	rpcAddr, pubAddr, stop := startDaemon(t)
	defer stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := nrmclient.New(ctx, nrmclient.Options{
		RPCAddr: rpcAddr, PubAddr: pubAddr, Transmit: true, RateLimit: time.Hour,
	})
	require.NoError(t, err)

	sensor, err := c.AddSensor(ctx, "s1")
	require.NoError(t, err)
	scope, err := c.AddScope(ctx, types.NewScope("whole-node"))
	require.NoError(t, err)

	require.NoError(t, c.SendEvent(ctx, sensor.UUID, scope.UUID, 1.0))
	// second call within the rate-limit window is dropped client-side
	// before it ever reaches the daemon.
	require.NoError(t, c.SendEvent(ctx, sensor.UUID, scope.UUID, 2.0))
}
