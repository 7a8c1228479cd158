package dispatcher_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/dispatcher"
	"github.com/anlsys/libnrm-sub000/internal/eventbase"
	"github.com/anlsys/libnrm-sub000/internal/role"
	"github.com/anlsys/libnrm-sub000/internal/state"
	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

func startDispatcher(t *testing.T) (*role.ClientRole, func()) {
	t.Helper()

	ctrl, err := role.NewControllerRole("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)

	tables := state.New()
	eb := eventbase.New(5, 10)
	d := dispatcher.New(ctrl, tables, eb, 50*time.Millisecond, dispatcher.Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	<-ctrl.Ready()

	client := role.NewClientRole(ctrl.RPCAddr(), ctrl.PubAddr())
	clientCtx, clientCancel := context.WithCancel(context.Background())
	go client.Run(clientCtx)
	<-client.Ready()

	return client, func() {
		clientCancel()
		cancel()
	}
}

func TestAddActuatorThenList(t *testing.T) {
	client, stop := startDispatcher(t)
	defer stop()

	ctx := context.Background()
	require.NoError(t, client.Send(ctx, nil, wire.Message{
		Kind:   wire.KindAdd,
		Target: types.EntityActuator,
		Actuator: &wire.ActuatorPayload{
			Name:      "power-cap",
			ValueKind: types.ActuatorDiscrete,
			Choices:   []float64{0, 0.5, 1},
		},
	}))

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	reply, _, err := client.Recv(recvCtx)
	require.NoError(t, err)
	require.Equal(t, wire.KindACK, reply.Kind)
	require.NotNil(t, reply.Actuator)
	assert.NotEmpty(t, reply.Actuator.UUID)

	require.NoError(t, client.Send(ctx, nil, wire.Message{Kind: wire.KindList, Target: types.EntityActuator}))
	recvCtx2, cancel2 := context.WithTimeout(ctx, time.Second)
	defer cancel2()
	listReply, _, err := client.Recv(recvCtx2)
	require.NoError(t, err)
	require.Equal(t, wire.KindList, listReply.Kind)
	require.Len(t, listReply.Entities, 1)
	assert.Equal(t, "power-cap", listReply.Entities[0].Actuator.Name)
}

func TestActuateForwardsToOwningClient(t *testing.T) {
	ctrl, err := role.NewControllerRole("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)

	tables := state.New()
	eb := eventbase.New(5, 10)
	d := dispatcher.New(ctrl, tables, eb, 50*time.Millisecond, dispatcher.Callbacks{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)
	<-ctrl.Ready()

	owner := role.NewClientRole(ctrl.RPCAddr(), ctrl.PubAddr())
	ownerCtx, ownerCancel := context.WithCancel(context.Background())
	defer ownerCancel()
	go owner.Run(ownerCtx)
	<-owner.Ready()

	forwarded := make(chan wire.Message, 1)
	owner.RegisterCmdCallback(func(_ []byte, msg wire.Message) {
		forwarded <- msg
	})

	require.NoError(t, owner.Send(ctx, nil, wire.Message{
		Kind:   wire.KindAdd,
		Target: types.EntityActuator,
		Actuator: &wire.ActuatorPayload{
			Name:      "power-cap",
			ValueKind: types.ActuatorDiscrete,
			Choices:   []float64{0, 0.5, 1},
			Value:     0,
		},
	}))
	recvCtx, recvCancel := context.WithTimeout(ctx, time.Second)
	defer recvCancel()
	addReply, _, err := owner.Recv(recvCtx)
	require.NoError(t, err)
	require.Equal(t, wire.KindACK, addReply.Kind)
	actuatorUUID := addReply.Actuator.UUID

	requester := role.NewClientRole(ctrl.RPCAddr(), ctrl.PubAddr())
	reqCtx, reqCancel := context.WithCancel(context.Background())
	defer reqCancel()
	go requester.Run(reqCtx)
	<-requester.Ready()

	require.NoError(t, requester.Send(ctx, nil, wire.Message{
		Kind:         wire.KindActuate,
		ActuatorUUID: actuatorUUID,
		Value:        0.5,
	}))
	ackCtx, ackCancel := context.WithTimeout(ctx, time.Second)
	defer ackCancel()
	ackReply, _, err := requester.Recv(ackCtx)
	require.NoError(t, err)
	assert.Equal(t, wire.KindACK, ackReply.Kind)

	select {
	case msg := <-forwarded:
		assert.Equal(t, wire.KindActuate, msg.Kind)
		assert.Equal(t, actuatorUUID, msg.ActuatorUUID)
		assert.Equal(t, 0.5, msg.Value)
	case <-time.After(time.Second):
		t.Fatal("owning client never received forwarded ACTUATE")
	}
}

func TestAddUnknownTargetReturnsNAK(t *testing.T) {
	client, stop := startDispatcher(t)
	defer stop()

	ctx := context.Background()
	require.NoError(t, client.Send(ctx, nil, wire.Message{Kind: wire.KindAdd}))

	recvCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	reply, _, err := client.Recv(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, wire.KindNAK, reply.Kind)
}
