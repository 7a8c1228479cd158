package broker

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anlsys/libnrm-sub000/internal/metrics"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

const dialRetryInterval = 200 * time.Millisecond

// Run establishes the broker's connections (dialing or binding) and
// runs its event loop until ctx is cancelled or Term is called. It is
// the single place owning the underlying net.Conn/net.Listener
// values; everything else happens through Send/Pub/Sub/Term and the
// registered callbacks.
func (b *Broker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	switch b.mode {
	case ModeDial:
		if err := b.dialAll(gctx); err != nil {
			return err
		}
		g.Go(func() error { return b.readRPCConn(gctx, b.rpcConn, nil) })
		g.Go(func() error { return b.readPubConn(gctx, b.pubConn) })
	case ModeBind:
		g.Go(func() error { return b.acceptRPC(gctx) })
		g.Go(func() error { return b.acceptPub(gctx) })
	}
	close(b.ready)

	g.Go(func() error { return b.pumpPipe(gctx) })

	<-gctx.Done()
	b.closeAll()
	return g.Wait()
}

func (b *Broker) dialAll(ctx context.Context) error {
	var err error
	b.rpcConn, err = dialWithRetry(ctx, b.rpcAddr)
	if err != nil {
		return fmt.Errorf("broker: dial rpc %s: %w", b.rpcAddr, err)
	}
	b.pubConn, err = dialWithRetry(ctx, b.pubAddr)
	if err != nil {
		return fmt.Errorf("broker: dial pub %s: %w", b.pubAddr, err)
	}
	return nil
}

func dialWithRetry(ctx context.Context, addr string) (net.Conn, error) {
	for {
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryInterval):
		}
	}
}

func (b *Broker) closeAll() {
	if b.rpcConn != nil {
		b.rpcConn.Close()
	}
	if b.pubConn != nil {
		b.pubConn.Close()
	}
	if b.rpcListener != nil {
		b.rpcListener.Close()
	}
	if b.pubListener != nil {
		b.pubListener.Close()
	}
	b.mu.Lock()
	for _, c := range b.rpcPeers {
		c.Close()
	}
	for _, s := range b.subs {
		s.conn.Close()
	}
	b.mu.Unlock()
}

func (b *Broker) acceptRPC(ctx context.Context) error {
	for {
		conn, err := b.rpcListener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("broker: accept rpc: %w", err)
			}
		}
		routingID := conn.RemoteAddr().String()
		b.mu.Lock()
		b.rpcPeers[routingID] = conn
		b.mu.Unlock()
		metrics.BrokerConnections.WithLabelValues("rpc").Inc()

		go func() {
			_ = b.readRPCConn(ctx, conn, []byte(routingID))
			b.mu.Lock()
			delete(b.rpcPeers, routingID)
			b.mu.Unlock()
			metrics.BrokerConnections.WithLabelValues("rpc").Dec()
			if b.DisconnectCallback != nil {
				b.DisconnectCallback([]byte(routingID))
			}
		}()
	}
}

func (b *Broker) acceptPub(ctx context.Context) error {
	for {
		conn, err := b.pubListener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("broker: accept pub: %w", err)
			}
		}
		sub := &subscriber{conn: conn, topics: make(map[string]bool), out: make(chan []byte, 256)}
		id := conn.RemoteAddr().String()
		b.mu.Lock()
		b.subs[id] = sub
		b.mu.Unlock()
		metrics.BrokerConnections.WithLabelValues("sub").Inc()

		go b.writeSubscriber(sub)
		go func() {
			b.readSubRequests(ctx, sub)
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.out)
			metrics.BrokerConnections.WithLabelValues("sub").Dec()
		}()
	}
}

// readSubRequests reads SUB control frames a subscriber sends to
// register topic-prefix interest.
func (b *Broker) readSubRequests(ctx context.Context, sub *subscriber) {
	r := wire.NewBufferedReader(sub.conn)
	for {
		topic, payload, err := wire.ReadPubFrame(r)
		if err != nil {
			return
		}
		msg, err := wire.Unpack(payload)
		if err != nil {
			continue
		}
		if msg.Kind == wire.KindAdd {
			// subscribers encode a SUB request as an ADD-kind
			// control message carrying the topic prefix in Name; an
			// empty prefix matches every topic
			sub.addTopic(msg.Name)
			continue
		}
		_ = topic
	}
}

func (b *Broker) writeSubscriber(sub *subscriber) {
	for payload := range sub.out {
		if err := writeFrameTo(sub.conn, payload); err != nil {
			return
		}
	}
}

func writeFrameTo(conn net.Conn, raw []byte) error {
	_, err := conn.Write(raw)
	return err
}

func (b *Broker) readRPCConn(ctx context.Context, conn net.Conn, routingID []byte) error {
	r := wire.NewBufferedReader(conn)
	for {
		id, payload, err := wire.ReadRPCFrame(r)
		if err != nil {
			return nil
		}
		msg, err := wire.Unpack(payload)
		if err != nil {
			continue
		}
		if routingID != nil {
			id = routingID
		}
		if b.CmdCallback != nil {
			b.CmdCallback(id, msg)
		}
	}
}

func (b *Broker) readPubConn(ctx context.Context, conn net.Conn) error {
	r := wire.NewBufferedReader(conn)
	for {
		topic, payload, err := wire.ReadPubFrame(r)
		if err != nil {
			return nil
		}
		msg, err := wire.Unpack(payload)
		if err != nil {
			continue
		}
		if b.SubCallback != nil {
			b.SubCallback(topic, msg)
		}
	}
}

// pumpPipe drains the broker's internal control channel, turning
// Send/Pub/Sub/Term requests into wire traffic.
func (b *Broker) pumpPipe(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cm := <-b.pipe:
			err := b.handleCtrl(cm)
			if cm.result != nil {
				cm.result <- err
			}
			if cm.kind == ctrlTerm {
				b.cancel()
				return err
			}
		}
	}
}

func (b *Broker) handleCtrl(cm ctrlMsg) error {
	switch cm.kind {
	case ctrlSend:
		return b.doSend(cm.routingID, cm.msg)
	case ctrlPub:
		return b.doPub(cm.topic, cm.msg)
	case ctrlSub:
		return b.doSub(cm.topic)
	case ctrlTerm:
		return nil
	default:
		return fmt.Errorf("broker: unknown control kind %d", cm.kind)
	}
}

func (b *Broker) doSend(routingID []byte, msg wire.Message) error {
	payload, err := wire.Pack(msg)
	if err != nil {
		return err
	}

	if b.mode == ModeDial {
		return wire.WriteRPCFrame(b.rpcConn, nil, payload)
	}

	b.mu.Lock()
	conn, ok := b.rpcPeers[string(routingID)]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("broker: no peer with routing id %q", routingID)
	}
	return wire.WriteRPCFrame(conn, routingID, payload)
}

func (b *Broker) doPub(topic string, msg wire.Message) error {
	payload, err := wire.Pack(msg)
	if err != nil {
		return err
	}

	if b.mode == ModeDial {
		return wire.WritePubFrame(b.pubConn, topic, payload)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if !sub.interested(topic) {
			continue
		}
		var buf bytes.Buffer
		if err := wire.WritePubFrame(&buf, topic, payload); err != nil {
			continue
		}
		select {
		case sub.out <- buf.Bytes():
		default:
			// slow subscriber: drop rather than block the publisher,
			// matching spec's lossy-fan-out guarantee.
		}
	}
	return nil
}

func (b *Broker) doSub(topic string) error {
	if b.mode != ModeDial {
		return fmt.Errorf("broker: sub is only valid in dial mode")
	}
	// Encode the subscription request as an ADD-kind control message
	// carrying the topic prefix, framed like any other pub frame so the
	// controller's pub listener can read it with the same codec.
	req := wire.Message{Kind: wire.KindAdd, Name: topic}
	payload, err := wire.Pack(req)
	if err != nil {
		return err
	}
	return wire.WritePubFrame(b.pubConn, topic, payload)
}
