package dispatcher

import (
	"time"

	nrmlog "github.com/anlsys/libnrm-sub000/internal/log"
	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

func (d *Dispatcher) handleAdd(routingID []byte, msg wire.Message) {
	switch msg.Target {
	case types.EntityActuator:
		if msg.Actuator == nil || msg.Actuator.Name == "" {
			d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "add actuator: missing name"})
			return
		}
		a := actuatorFromPayload(msg.Actuator)
		a.ClientID = string(routingID)
		a = d.tables.AddActuator(a)
		p := actuatorToPayload(a)
		d.reply(routingID, wire.Message{Kind: wire.KindACK, Target: types.EntityActuator, Actuator: &p})

	case types.EntityScope:
		if msg.Scope == nil || msg.Scope.Name == "" {
			d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "add scope: missing name"})
			return
		}
		s, err := scopeFromPayload(msg.Scope)
		if err != nil {
			d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "add scope: " + err.Error()})
			return
		}
		s = d.tables.AddScope(s)
		p := scopeToPayload(s)
		d.reply(routingID, wire.Message{Kind: wire.KindACK, Target: types.EntityScope, Scope: &p})

	case types.EntitySensor:
		if msg.Sensor == nil || msg.Sensor.Name == "" {
			d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "add sensor: missing name"})
			return
		}
		s := d.tables.AddSensor(&types.Sensor{Name: msg.Sensor.Name})
		p := sensorToPayload(s)
		d.reply(routingID, wire.Message{Kind: wire.KindACK, Target: types.EntitySensor, Sensor: &p})

	case types.EntitySlice:
		if msg.Slice == nil || msg.Slice.Name == "" {
			d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "add slice: missing name"})
			return
		}
		s := d.tables.AddSlice(&types.Slice{Name: msg.Slice.Name})
		p := sliceToPayload(s)
		d.reply(routingID, wire.Message{Kind: wire.KindACK, Target: types.EntitySlice, Slice: &p})

	default:
		d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "add: unknown target kind"})
	}
}

func (d *Dispatcher) handleRemove(routingID []byte, msg wire.Message) {
	var ok bool
	switch msg.Target {
	case types.EntityActuator:
		ok = d.tables.RemoveActuator(msg.UUID)
	case types.EntityScope:
		ok = d.tables.RemoveScope(msg.UUID)
	case types.EntitySensor:
		ok = d.tables.RemoveSensor(msg.UUID)
		if ok {
			d.eb.RemoveSensor(msg.UUID)
		}
	case types.EntitySlice:
		ok = d.tables.RemoveSlice(msg.UUID)
	}
	if !ok {
		d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "remove: not found"})
		return
	}
	d.reply(routingID, wire.Message{Kind: wire.KindACK})
}

func (d *Dispatcher) handleList(routingID []byte, msg wire.Message) {
	var entities []wire.EntityPayload
	switch msg.Target {
	case types.EntityActuator:
		for _, a := range d.tables.ListActuators() {
			entities = append(entities, entityToPayload(a))
		}
	case types.EntityScope:
		for _, s := range d.tables.ListScopes() {
			entities = append(entities, entityToPayload(s))
		}
	case types.EntitySensor:
		for _, s := range d.tables.ListSensors() {
			entities = append(entities, entityToPayload(s))
		}
	case types.EntitySlice:
		for _, s := range d.tables.ListSlices() {
			entities = append(entities, entityToPayload(s))
		}
	}
	d.reply(routingID, wire.Message{Kind: wire.KindList, Target: msg.Target, Entities: entities})
}

// handleFind resolves a single entity by UUID or name and returns it
// as a one-element (or empty) LIST reply, so a client that only reads
// the returned entity list stays compatible with a plain LIST.
func (d *Dispatcher) handleFind(routingID []byte, msg wire.Message) {
	var entities []wire.EntityPayload

	if msg.UUID != "" {
		switch msg.Target {
		case types.EntityActuator:
			if a, ok := d.tables.FindActuatorByUUID(msg.UUID); ok {
				entities = append(entities, entityToPayload(a))
			}
		case types.EntityScope:
			if s, ok := d.tables.FindScopeByUUID(msg.UUID); ok {
				entities = append(entities, entityToPayload(s))
			}
		case types.EntitySensor:
			if s, ok := d.tables.FindSensorByUUID(msg.UUID); ok {
				entities = append(entities, entityToPayload(s))
			}
		case types.EntitySlice:
			if s, ok := d.tables.FindSliceByUUID(msg.UUID); ok {
				entities = append(entities, entityToPayload(s))
			}
		}
	} else if msg.Name != "" {
		if e, ok := d.tables.FindByName(msg.Target, msg.Name); ok {
			entities = append(entities, entityToPayload(e))
		}
	}

	d.reply(routingID, wire.Message{Kind: wire.KindList, Target: msg.Target, Entities: entities})
}

// handleEvent pushes one sample into the event base. There is no
// reply: a high-frequency sensor pushing events every few milliseconds
// can't afford a round trip per sample, so a malformed or unresolvable
// event is dropped with a log line instead of a NAK.
func (d *Dispatcher) handleEvent(routingID []byte, msg wire.Message) {
	if msg.Event == nil {
		nrmlog.Logger.Warn().Msg("event: missing payload, dropped")
		return
	}
	e := msg.Event
	sensor, ok := d.tables.FindSensorByUUID(e.SensorUUID)
	if !ok {
		nrmlog.Logger.Warn().Str("sensor", e.SensorUUID).Msg("event: unknown sensor, dropped")
		return
	}
	scope, ok := d.tables.FindScopeByUUID(e.ScopeUUID)
	if !ok {
		nrmlog.Logger.Warn().Str("scope", e.ScopeUUID).Msg("event: unknown scope, dropped")
		return
	}

	d.eb.PushEvent(e.SensorUUID, e.ScopeUUID, types.Event{
		Time:  time.Unix(e.TimeUnix, 0),
		Value: e.Value,
	})

	if d.cb.Event != nil {
		d.cb.Event(sensor, scope, *e)
	}
}

// handleActuate acknowledges receipt, not acceptance — ACK is sent
// regardless of whether the value is ultimately applied (KindCompleted
// is reserved for a future asynchronous completion signal but unwired
// today). On acceptance, the value is forwarded as an unsolicited
// ACTUATE to the actuator's owning client.
func (d *Dispatcher) handleActuate(routingID []byte, msg wire.Message) {
	a, ok := d.tables.FindActuatorByUUID(msg.ActuatorUUID)
	if !ok {
		d.reply(routingID, wire.Message{Kind: wire.KindNAK, Reason: "actuate: unknown actuator"})
		return
	}

	var err error
	if d.cb.Actuate != nil {
		err = d.cb.Actuate(a, msg.Value)
	} else if a.Validate(msg.Value) {
		a.Value = msg.Value
	} else {
		err = errInvalidActuatorValue
	}
	if err != nil {
		nrmlog.Logger.Warn().Str("actuator", a.UUID).Err(err).Msg("actuate: value not applied")
	} else if a.ClientID != "" {
		d.reply([]byte(a.ClientID), wire.Message{
			Kind:         wire.KindActuate,
			ActuatorUUID: a.UUID,
			Value:        msg.Value,
		})
	}

	d.reply(routingID, wire.Message{Kind: wire.KindACK})
}

var errInvalidActuatorValue = &actuatorValueError{}

type actuatorValueError struct{}

func (*actuatorValueError) Error() string { return "actuate: value rejected by validator" }

// handleExit acknowledges an orderly client-side disconnect. Actuators
// registered by that client are intentionally left in place until an
// explicit REMOVE.
func (d *Dispatcher) handleExit(routingID []byte, msg wire.Message) {
	d.reply(routingID, wire.Message{Kind: wire.KindACK})
}
