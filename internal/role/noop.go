package role

import (
	"context"

	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// NoopRole implements Role without opening any socket. It backs the
// client package's NRM_TRANSMIT=0 mode: instrumented code can link
// against the client API in environments with no daemon running,
// exactly as the original downstream API allows.
type NoopRole struct {
	ready chan struct{}
}

// NewNoopRole builds a Role whose every call is a no-op.
func NewNoopRole() *NoopRole {
	r := &NoopRole{ready: make(chan struct{})}
	close(r.ready)
	return r
}

func (r *NoopRole) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (r *NoopRole) Ready() <-chan struct{} { return r.ready }

func (r *NoopRole) Send(ctx context.Context, routingID []byte, msg wire.Message) error { return nil }

func (r *NoopRole) Recv(ctx context.Context) (wire.Message, []byte, error) {
	<-ctx.Done()
	return wire.Message{}, nil, ctx.Err()
}

func (r *NoopRole) Pub(ctx context.Context, topic string, msg wire.Message) error { return nil }

func (r *NoopRole) Sub(ctx context.Context, topic string) error { return nil }

func (r *NoopRole) RegisterCmdCallback(func(routingID []byte, msg wire.Message)) {}

func (r *NoopRole) RegisterSubCallback(func(topic string, msg wire.Message)) {}

func (r *NoopRole) Close(ctx context.Context) error { return nil }
