package broker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/broker"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

func TestSendReceivedByController(t *testing.T) {
	ctrl, err := broker.NewBind("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var got []wire.Message
	ctrl.CmdCallback = func(routingID []byte, msg wire.Message) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()
	<-ctrl.Ready()

	client := broker.NewDial(ctrl.RPCAddr(), ctrl.PubAddr())
	clientDone := make(chan error, 1)
	clientCtx, clientCancel := context.WithCancel(context.Background())
	defer clientCancel()
	go func() { clientDone <- client.Run(clientCtx) }()
	<-client.Ready()

	require.NoError(t, client.Send(context.Background(), nil, wire.Message{Kind: wire.KindExit}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, wire.KindExit, got[0].Kind)
	mu.Unlock()
}

func TestPubSubTopicFiltering(t *testing.T) {
	ctrl, err := broker.NewBind("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)
	<-ctrl.Ready()

	client := broker.NewDial(ctrl.RPCAddr(), ctrl.PubAddr())
	var mu sync.Mutex
	var received []string
	client.SubCallback = func(topic string, msg wire.Message) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, topic)
	}

	clientCtx, clientCancel := context.WithCancel(context.Background())
	defer clientCancel()
	go client.Run(clientCtx)
	<-client.Ready()

	require.NoError(t, client.Sub(context.Background(), "sensor-1"))
	time.Sleep(50 * time.Millisecond) // let the SUB frame reach the controller

	require.NoError(t, ctrl.Pub(context.Background(), "sensor-2", wire.Message{Kind: wire.KindEvents}))
	require.NoError(t, ctrl.Pub(context.Background(), "sensor-1", wire.Message{Kind: wire.KindEvents}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"sensor-1"}, received)
	mu.Unlock()
}
