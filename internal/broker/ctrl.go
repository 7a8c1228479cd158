package broker

import (
	"context"
	"fmt"

	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// Send delivers msg over the RPC connection. In bind mode routingID
// selects the destination peer; in dial mode routingID is ignored.
func (b *Broker) Send(ctx context.Context, routingID []byte, msg wire.Message) error {
	return b.submit(ctx, ctrlMsg{kind: ctrlSend, routingID: routingID, msg: msg})
}

// Pub publishes msg on topic to every interested subscriber (bind
// mode). In dial mode the frame is written to the controller's pub
// listener, which only acts on subscription requests and discards
// anything else.
func (b *Broker) Pub(ctx context.Context, topic string, msg wire.Message) error {
	return b.submit(ctx, ctrlMsg{kind: ctrlPub, topic: topic, msg: msg})
}

// Sub registers interest in topic (dial mode only).
func (b *Broker) Sub(ctx context.Context, topic string) error {
	return b.submit(ctx, ctrlMsg{kind: ctrlSub, topic: topic})
}

// Term asks the broker to shut down: Run's event loop stops and closes
// every owned connection/listener. Term returns once the request has
// been handled, which can be before Run itself has returned.
func (b *Broker) Term(ctx context.Context) error {
	return b.submit(ctx, ctrlMsg{kind: ctrlTerm})
}

func (b *Broker) submit(ctx context.Context, cm ctrlMsg) error {
	cm.result = make(chan error, 1)
	select {
	case b.pipe <- cm:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cm.result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("broker: submit: %w", ctx.Err())
	}
}
