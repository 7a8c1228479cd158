package role

import (
	"context"
	"fmt"
	"sync"

	"github.com/anlsys/libnrm-sub000/internal/broker"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// Role is the facade every participant (client, controller, sensor)
// drives instead of touching a broker directly.
type Role interface {
	// Run starts the underlying broker's event loop and blocks until
	// ctx is cancelled or Close is called. Callers run it in its own
	// goroutine.
	Run(ctx context.Context) error
	// Ready is closed once the role's connections are established.
	Ready() <-chan struct{}

	Send(ctx context.Context, routingID []byte, msg wire.Message) error
	Recv(ctx context.Context) (wire.Message, []byte, error)
	Pub(ctx context.Context, topic string, msg wire.Message) error
	Sub(ctx context.Context, topic string) error

	RegisterCmdCallback(func(routingID []byte, msg wire.Message))
	RegisterSubCallback(func(topic string, msg wire.Message))

	Close(ctx context.Context) error
}

type cmdEnvelope struct {
	routingID []byte
	msg       wire.Message
}

// baseRole implements Role over one *broker.Broker. Concurrent Send
// calls are serialized per role instance; Recv takes no lock, so a
// role does not by itself pair a Send with the Recv of its reply.
// internal/client's Client holds its own mutex across both.
type baseRole struct {
	br *broker.Broker

	sendMu sync.Mutex

	cmdCh       chan cmdEnvelope
	cmdCallback func(routingID []byte, msg wire.Message)
	subCallback func(topic string, msg wire.Message)
}

func newBaseRole(br *broker.Broker) *baseRole {
	r := &baseRole{br: br, cmdCh: make(chan cmdEnvelope, 256)}
	br.CmdCallback = r.onCmd
	br.SubCallback = r.onSub
	return r
}

// onCmd is the broker's single RPC-inbound entry point. Reply variants
// (ACK/NAK/LIST) must reach the channel so a pending Recv picks them
// up in FIFO order with the Send that solicited them; command variants
// (ACTUATE, and everything a server receives from a client) go to the
// registered cmd callback when one exists, so they never get mistaken
// for the reply to an in-flight call.
func (r *baseRole) onCmd(routingID []byte, msg wire.Message) {
	if !wire.Classify(msg.Kind) && r.cmdCallback != nil {
		r.cmdCallback(routingID, msg)
		return
	}
	select {
	case r.cmdCh <- cmdEnvelope{routingID: routingID, msg: msg}:
	default:
		// caller isn't Recv-ing fast enough; drop per the spec's
		// lossy-fan-out allowance rather than block the broker loop.
	}
}

func (r *baseRole) onSub(topic string, msg wire.Message) {
	if r.subCallback != nil {
		r.subCallback(topic, msg)
	}
}

func (r *baseRole) Run(ctx context.Context) error  { return r.br.Run(ctx) }
func (r *baseRole) Ready() <-chan struct{}         { return r.br.Ready() }

func (r *baseRole) Send(ctx context.Context, routingID []byte, msg wire.Message) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	return r.br.Send(ctx, routingID, msg)
}

func (r *baseRole) Recv(ctx context.Context) (wire.Message, []byte, error) {
	select {
	case e := <-r.cmdCh:
		return e.msg, e.routingID, nil
	case <-ctx.Done():
		return wire.Message{}, nil, fmt.Errorf("role: recv: %w", ctx.Err())
	}
}

func (r *baseRole) Pub(ctx context.Context, topic string, msg wire.Message) error {
	return r.br.Pub(ctx, topic, msg)
}

func (r *baseRole) Sub(ctx context.Context, topic string) error {
	return r.br.Sub(ctx, topic)
}

func (r *baseRole) RegisterCmdCallback(cb func(routingID []byte, msg wire.Message)) {
	r.cmdCallback = cb
}

func (r *baseRole) RegisterSubCallback(cb func(topic string, msg wire.Message)) {
	r.subCallback = cb
}

func (r *baseRole) Close(ctx context.Context) error {
	return r.br.Term(ctx)
}

// ClientRole dials both the controller's RPC and pub endpoints.
type ClientRole struct{ *baseRole }

// NewClientRole builds a role that dials rpcAddr/pubAddr.
func NewClientRole(rpcAddr, pubAddr string) *ClientRole {
	return &ClientRole{baseRole: newBaseRole(broker.NewDial(rpcAddr, pubAddr))}
}

// SensorRole is a dial-side role used only to push events over RPC; it
// never subscribes.
type SensorRole struct{ *baseRole }

// NewSensorRole builds a sensor role. It still dials the pub address
// internally (the broker type requires both), but callers are never
// expected to call Sub on it.
func NewSensorRole(rpcAddr, pubAddr string) *SensorRole {
	return &SensorRole{baseRole: newBaseRole(broker.NewDial(rpcAddr, pubAddr))}
}

// ControllerRole binds the RPC and pub listeners the rest of the
// roles dial into.
type ControllerRole struct{ *baseRole }

// NewControllerRole builds a role bound to rpcAddr/pubAddr.
func NewControllerRole(rpcAddr, pubAddr string) (*ControllerRole, error) {
	br, err := broker.NewBind(rpcAddr, pubAddr)
	if err != nil {
		return nil, fmt.Errorf("role: new controller role: %w", err)
	}
	return &ControllerRole{baseRole: newBaseRole(br)}, nil
}

// RPCAddr returns the controller's bound RPC address.
func (c *ControllerRole) RPCAddr() string { return c.br.RPCAddr() }

// PubAddr returns the controller's bound pub address.
func (c *ControllerRole) PubAddr() string { return c.br.PubAddr() }

// DisconnectCallback registers a peer-disconnect hook; unregistered by
// default, so a disconnected client's actuators stay registered.
func (c *ControllerRole) DisconnectCallback(cb func(routingID []byte)) {
	c.br.DisconnectCallback = cb
}
