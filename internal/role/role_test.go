package role_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/role"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

func TestClientControllerRequestReply(t *testing.T) {
	ctrl, err := role.NewControllerRole("127.0.0.1:0", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)
	<-ctrl.Ready()

	client := role.NewClientRole(ctrl.RPCAddr(), ctrl.PubAddr())
	clientCtx, clientCancel := context.WithCancel(context.Background())
	defer clientCancel()
	go client.Run(clientCtx)
	<-client.Ready()

	// Controller echoes ADD requests back to the requester as ACK.
	ctrl.RegisterCmdCallback(func(routingID []byte, msg wire.Message) {
		_ = ctrl.Send(context.Background(), routingID, wire.Message{Kind: wire.KindACK})
	})

	require.NoError(t, client.Send(context.Background(), nil, wire.Message{Kind: wire.KindAdd}))

	recvCtx, recvCancel := context.WithTimeout(context.Background(), time.Second)
	defer recvCancel()
	reply, _, err := client.Recv(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, wire.KindACK, reply.Kind)
}
