package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anlsys/libnrm-sub000/internal/role"
	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// DefaultTimeout bounds every RPC-style call when the caller doesn't
// override it via internal/config (NRM_TIMEOUT), mirroring
// cuemby-warren's client.go's context.WithTimeout-per-call shape.
const DefaultTimeout = time.Second

// DefaultRateLimit is the minimum interval between two accepted
// SendEvent calls for the same sensor, matching the original
// downstream API's default NRM_RATELIMIT of 10ms.
const DefaultRateLimit = 10 * time.Millisecond

// EventListener is invoked for every EVENTS broadcast the client
// receives, once per (sensor, scope) series summarized in it.
type EventListener func(sensorUUID string, scopeUUID string, t time.Time, value float64)

// ActuateListener is invoked for every unsolicited ACTUATE message
// (a controller pushing a value to a client-owned actuator).
type ActuateListener func(actuatorUUID string, value float64)

// Client is a session against the daemon: one role, one RPC timeout,
// and the send/recv mutex pairing that guarantees FIFO reply matching
// for this caller.
type Client struct {
	r         role.Role
	transmit  bool
	timeout   time.Duration
	rateLimit time.Duration

	mu sync.Mutex

	rateMu   sync.Mutex
	lastSend map[string]time.Time

	eventListener   EventListener
	actuateListener ActuateListener
}

// Options configures a Client.
type Options struct {
	RPCAddr   string
	PubAddr   string
	Timeout   time.Duration
	RateLimit time.Duration
	// Transmit, when false, builds a role.NoopRole: every call
	// succeeds immediately without opening a socket (NRM_TRANSMIT=0).
	Transmit bool
	// Sensor selects a SensorRole (pushes over RPC, never subscribes)
	// instead of a ClientRole.
	Sensor bool
}

// New builds a Client and starts its underlying role's event loop in
// the background, bound to ctx's lifetime.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}

	c := &Client{
		transmit:  opts.Transmit,
		timeout:   opts.Timeout,
		rateLimit: opts.RateLimit,
		lastSend:  make(map[string]time.Time),
	}

	if !opts.Transmit {
		c.r = role.NewNoopRole()
	} else if opts.Sensor {
		c.r = role.NewSensorRole(opts.RPCAddr, opts.PubAddr)
	} else {
		c.r = role.NewClientRole(opts.RPCAddr, opts.PubAddr)
	}

	c.r.RegisterSubCallback(c.onSub)
	c.r.RegisterCmdCallback(c.onCmd)

	go c.r.Run(ctx)

	select {
	case <-c.r.Ready():
	case <-ctx.Done():
		return nil, fmt.Errorf("client: %w", ctx.Err())
	}

	return c, nil
}

func (c *Client) onSub(topic string, msg wire.Message) {
	if msg.Kind != wire.KindEvents || c.eventListener == nil {
		return
	}
	for _, series := range msg.Events {
		if len(series.Past) == 0 {
			continue
		}
		// the most recent past entry is the period the daemon just closed
		e := series.Past[len(series.Past)-1]
		c.eventListener(series.SensorUUID, series.ScopeUUID, time.Unix(e.TimeUnix, 0), e.Value)
	}
}

// onCmd handles unsolicited RPC commands delivered outside the
// request/reply pairing — the only one a client ever receives is a
// server-forwarded ACTUATE on an actuator this client owns.
func (c *Client) onCmd(_ []byte, msg wire.Message) {
	if msg.Kind == wire.KindActuate && c.actuateListener != nil {
		c.actuateListener(msg.ActuatorUUID, msg.Value)
	}
}

// StartEventListener registers cb and subscribes to topic (typically
// a sensor UUID, or "" for every topic via empty-prefix match).
func (c *Client) StartEventListener(ctx context.Context, topic string, cb EventListener) error {
	c.eventListener = cb
	if !c.transmit {
		return nil
	}
	return c.r.Sub(ctx, topic)
}

// StartActuateListener registers cb for unsolicited ACTUATE commands.
func (c *Client) StartActuateListener(cb ActuateListener) {
	c.actuateListener = cb
}

// call sends msg and waits for the next reply, serialized against any
// other in-flight call from this Client, guaranteeing FIFO request/
// reply pairing for this caller.
func (c *Client) call(ctx context.Context, msg wire.Message) (wire.Message, error) {
	if !c.transmit {
		return wire.Message{Kind: wire.KindACK}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.r.Send(ctx, nil, msg); err != nil {
		return wire.Message{}, fmt.Errorf("client: send: %w", err)
	}
	reply, _, err := c.r.Recv(ctx)
	if err != nil {
		return wire.Message{}, fmt.Errorf("client: recv: %w", err)
	}
	if reply.Kind == wire.KindNAK {
		return reply, fmt.Errorf("client: request rejected: %s", reply.Reason)
	}
	return reply, nil
}

// send fires msg without waiting for any reply, for the high-frequency
// sensor path where a round trip per sample would be too costly. It
// still takes the send mutex so it can't interleave mid-frame with a
// concurrent call's Send.
func (c *Client) send(ctx context.Context, msg wire.Message) error {
	if !c.transmit {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.r.Send(ctx, nil, msg); err != nil {
		return fmt.Errorf("client: send: %w", err)
	}
	return nil
}

// Close terminates the underlying role's connections.
func (c *Client) Close(ctx context.Context) error {
	return c.r.Close(ctx)
}
