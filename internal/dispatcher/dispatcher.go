package dispatcher

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anlsys/libnrm-sub000/internal/eventbase"
	nrmlog "github.com/anlsys/libnrm-sub000/internal/log"
	"github.com/anlsys/libnrm-sub000/internal/metrics"
	"github.com/anlsys/libnrm-sub000/internal/role"
	"github.com/anlsys/libnrm-sub000/internal/state"
	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// DefaultPeriod is the default tick interval closing one aggregation
// period.
const DefaultPeriod = time.Second

// Callbacks lets an embedder hook the three event-loop registration
// points the original reactor exposes: signal handling, periodic
// timer work, and policy over incoming events/actuations.
type Callbacks struct {
	// Signal is invoked on SIGINT/SIGTERM. A non-zero return requests
	// immediate shutdown with that value treated as an error sentinel;
	// zero requests graceful shutdown. Nil means: always shut down.
	Signal func(sig os.Signal) int
	// Timer is invoked after every tick-driven period close.
	Timer func()
	// Event is invoked for every accepted EVENT message, after it has
	// been pushed into the event base.
	Event func(sensor *types.Sensor, scope *types.Scope, payload wire.EventPayload)
	// Actuate is invoked to decide whether to accept an ACTUATE
	// request. Nil means: fall back to Actuator.Validate.
	Actuate func(actuator *types.Actuator, value float64) error
}

type cmdEnvelope struct {
	routingID []byte
	msg       wire.Message
}

// Dispatcher is the daemon's single-threaded reactor over one
// controller role, the entity registry, and the event base.
type Dispatcher struct {
	ctrl   *role.ControllerRole
	tables *state.Tables
	eb     *eventbase.Base
	period time.Duration
	cb     Callbacks
}

// New builds a Dispatcher. period defaults to DefaultPeriod if zero.
func New(ctrl *role.ControllerRole, tables *state.Tables, eb *eventbase.Base, period time.Duration, cb Callbacks) *Dispatcher {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Dispatcher{ctrl: ctrl, tables: tables, eb: eb, period: period, cb: cb}
}

// Run drives the reactor loop until ctx is cancelled, a signal
// callback requests shutdown, or the controller role's connections
// fail.
func (d *Dispatcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g.Go(func() error { return d.ctrl.Run(gctx) })

	inbound := make(chan cmdEnvelope, 256)
	g.Go(func() error {
		<-d.ctrl.Ready()
		for {
			msg, routingID, err := d.ctrl.Recv(gctx)
			if err != nil {
				return nil
			}
			select {
			case inbound <- cmdEnvelope{routingID: routingID, msg: msg}:
			case <-gctx.Done():
				return nil
			}
		}
	})

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case sig := <-sigCh:
				if d.cb.Signal != nil {
					if code := d.cb.Signal(sig); code != 0 {
						return fmt.Errorf("dispatcher: shutdown requested by signal handler, code %d", code)
					}
				}
				cancel()
				return nil
			case now := <-ticker.C:
				timer := metrics.NewTimer(metrics.DispatcherTickDuration)
				d.handleTick(now)
				timer.ObserveDuration()
			case env := <-inbound:
				timer := metrics.NewTimer(metrics.DispatcherTickDuration)
				d.dispatch(env.routingID, env.msg)
				timer.ObserveDuration()
			}
		}
	})

	return g.Wait()
}

func (d *Dispatcher) dispatch(routingID []byte, msg wire.Message) {
	metrics.DispatcherMessagesTotal.WithLabelValues(string(msg.Kind)).Inc()

	switch msg.Kind {
	case wire.KindAdd:
		d.handleAdd(routingID, msg)
	case wire.KindRemove:
		d.handleRemove(routingID, msg)
	case wire.KindList:
		d.handleList(routingID, msg)
	case wire.KindFind:
		d.handleFind(routingID, msg)
	case wire.KindEvent:
		d.handleEvent(routingID, msg)
	case wire.KindActuate:
		d.handleActuate(routingID, msg)
	case wire.KindExit:
		d.handleExit(routingID, msg)
	default:
		d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: fmt.Sprintf("unhandled kind %q", msg.Kind)})
	}
}

func (d *Dispatcher) reply(routingID []byte, msg wire.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.ctrl.Send(ctx, routingID, msg); err != nil {
		nrmlog.Logger.Error().Err(err).Msg("dispatcher: reply send failed")
	}
}

func (d *Dispatcher) handleTick(now time.Time) {
	d.eb.Tick(now)

	snapshot := d.eb.Snapshot()
	for _, sensor := range d.tables.ListSensors() {
		byScope, ok := snapshot[sensor.UUID]
		if !ok {
			continue
		}
		series := make([]wire.SeriesPayload, 0, len(byScope))
		for scopeUUID, s := range byScope {
			series = append(series, wire.SeriesPayload{
				SensorUUID: sensor.UUID,
				ScopeUUID:  scopeUUID,
				Current:    eventsToPayload(s.Current.Values()),
				Past:       eventsToPayload(s.Past.Values()),
			})
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.ctrl.Pub(ctx, sensor.UUID, wire.Message{Kind: wire.KindEvents, Events: series})
		cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = d.ctrl.Pub(ctx, "DAEMON", wire.Message{Kind: wire.KindTick})
	cancel()

	if d.cb.Timer != nil {
		d.cb.Timer()
	}
}

func eventsToPayload(evs []types.Event) []wire.EventPayload {
	out := make([]wire.EventPayload, len(evs))
	for i, e := range evs {
		out[i] = wire.EventPayload{Value: e.Value, TimeUnix: e.Time.Unix()}
	}
	return out
}
