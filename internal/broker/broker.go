package broker

import (
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	nrmlog "github.com/anlsys/libnrm-sub000/internal/log"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// Mode selects whether a Broker dials out to a remote controller or
// binds and accepts incoming role connections.
type Mode int

const (
	// ModeDial is used by client and sensor roles: one
	// outbound RPC connection, one outbound pub/sub connection.
	ModeDial Mode = iota
	// ModeBind is used by the controller role: an RPC listener
	// accepting many peers, a pub listener accepting many
	// subscribers.
	ModeBind
)

type ctrlKind int

const (
	ctrlSend ctrlKind = iota
	ctrlPub
	ctrlSub
	ctrlTerm
)

// ctrlMsg is the broker's internal control vocabulary, a tagged union
// following the "sum types, no inheritance" guidance for polymorphism
// in this codebase.
type ctrlMsg struct {
	kind      ctrlKind
	msg       wire.Message
	routingID []byte
	topic     string
	result    chan error
}

// subscriber tracks one pub/sub peer connection accepted by a
// bind-mode Broker's pub listener, and the topics it has asked for.
type subscriber struct {
	conn   net.Conn
	mu     sync.Mutex
	topics map[string]bool
	out    chan []byte
}

func (s *subscriber) interested(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.topics) == 0 {
		return false
	}
	for prefix := range s.topics {
		if len(topic) >= len(prefix) && topic[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func (s *subscriber) addTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic] = true
}

// Broker owns the transport connections for one role and runs a
// single event loop fanning inbound traffic out to the registered
// callbacks.
type Broker struct {
	mode    Mode
	rpcAddr string
	pubAddr string

	rpcListener net.Listener
	pubListener net.Listener

	rpcConn net.Conn // dial mode only
	pubConn net.Conn // dial mode only

	mu       sync.Mutex
	rpcPeers map[string]net.Conn
	subs     map[string]*subscriber

	pipe chan ctrlMsg

	// CmdCallback is invoked for every inbound RPC message, replies and
	// commands alike; the role layer sorts them with wire.Classify.
	CmdCallback func(routingID []byte, msg wire.Message)
	// SubCallback is invoked for every inbound pub/sub message
	// (dial-mode subscriber side only).
	SubCallback func(topic string, msg wire.Message)
	// DisconnectCallback is invoked when a bind-mode RPC peer
	// disconnects; left unregistered by default.
	DisconnectCallback func(routingID []byte)

	ready  chan struct{}
	cancel func()
	log    zerolog.Logger
}

// NewDial builds a Broker that dials out to rpcAddr/pubAddr.
func NewDial(rpcAddr, pubAddr string) *Broker {
	return &Broker{
		mode:    ModeDial,
		rpcAddr: rpcAddr,
		pubAddr: pubAddr,
		pipe:    make(chan ctrlMsg, 1024),
		ready:   make(chan struct{}),
		log:     nrmlog.WithComponent("broker"),
	}
}

// NewBind builds a Broker and immediately binds its RPC and pub
// listeners, so RPCAddr/PubAddr are known (e.g. after requesting
// port 0) before Run is called.
func NewBind(rpcAddr, pubAddr string) (*Broker, error) {
	b := &Broker{
		mode:     ModeBind,
		pipe:     make(chan ctrlMsg, 1024),
		ready:    make(chan struct{}),
		rpcPeers: make(map[string]net.Conn),
		subs:     make(map[string]*subscriber),
		log:      nrmlog.WithComponent("broker"),
	}

	var err error
	b.rpcListener, err = net.Listen("tcp", rpcAddr)
	if err != nil {
		return nil, fmt.Errorf("broker: listen rpc %s: %w", rpcAddr, err)
	}
	b.pubListener, err = net.Listen("tcp", pubAddr)
	if err != nil {
		b.rpcListener.Close()
		return nil, fmt.Errorf("broker: listen pub %s: %w", pubAddr, err)
	}
	b.rpcAddr = b.rpcListener.Addr().String()
	b.pubAddr = b.pubListener.Addr().String()
	return b, nil
}

// RPCAddr returns the RPC listener's bound address (bind mode only).
func (b *Broker) RPCAddr() string { return b.rpcAddr }

// PubAddr returns the pub listener's bound address (bind mode only).
func (b *Broker) PubAddr() string { return b.pubAddr }

// Ready is closed once the broker's connections are established:
// both dialed successfully in dial mode, or both listeners bound in
// bind mode.
func (b *Broker) Ready() <-chan struct{} { return b.ready }
