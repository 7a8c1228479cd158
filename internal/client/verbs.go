package client

import (
	"context"
	"time"

	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

// AddActuator registers a discrete or continuous actuator (callers
// build the payload via types.NewDiscreteActuator/NewContinuousActuator
// and pass its fields through).
func (c *Client) AddActuator(ctx context.Context, a *types.Actuator) (*types.Actuator, error) {
	reply, err := c.call(ctx, wire.Message{
		Kind:   wire.KindAdd,
		Target: types.EntityActuator,
		Actuator: &wire.ActuatorPayload{
			Name: a.Name, ValueKind: a.ValueKind, Value: a.Value,
			Choices: a.Choices, Min: a.Min, Max: a.Max,
		},
	})
	if err != nil {
		return nil, err
	}
	if !c.transmit || reply.Actuator == nil {
		return a, nil
	}
	a.UUID = reply.Actuator.UUID
	return a, nil
}

// AddScope registers a scope.
func (c *Client) AddScope(ctx context.Context, s *types.Scope) (*types.Scope, error) {
	reply, err := c.call(ctx, wire.Message{
		Kind:   wire.KindAdd,
		Target: types.EntityScope,
		Scope: &wire.ScopePayload{
			Name: s.Name, CPU: s.CPU.ToIndices(), NUMA: s.NUMA.ToIndices(), GPU: s.GPU.ToIndices(),
		},
	})
	if err != nil {
		return nil, err
	}
	if !c.transmit || reply.Scope == nil {
		return s, nil
	}
	s.UUID = reply.Scope.UUID
	return s, nil
}

// AddSensor registers a sensor.
func (c *Client) AddSensor(ctx context.Context, name string) (*types.Sensor, error) {
	reply, err := c.call(ctx, wire.Message{
		Kind: wire.KindAdd, Target: types.EntitySensor,
		Sensor: &wire.SensorPayload{Name: name},
	})
	if err != nil {
		return nil, err
	}
	s := &types.Sensor{Name: name}
	if c.transmit && reply.Sensor != nil {
		s.UUID = reply.Sensor.UUID
	}
	return s, nil
}

// AddSlice registers a slice.
func (c *Client) AddSlice(ctx context.Context, name string) (*types.Slice, error) {
	reply, err := c.call(ctx, wire.Message{
		Kind: wire.KindAdd, Target: types.EntitySlice,
		Slice: &wire.SlicePayload{Name: name},
	})
	if err != nil {
		return nil, err
	}
	s := &types.Slice{Name: name}
	if c.transmit && reply.Slice != nil {
		s.UUID = reply.Slice.UUID
	}
	return s, nil
}

// Remove deletes the entity of kind identified by uuid.
func (c *Client) Remove(ctx context.Context, kind types.EntityKind, uuid string) error {
	_, err := c.call(ctx, wire.Message{Kind: wire.KindRemove, Target: kind, UUID: uuid})
	return err
}

// List returns every registered entity of kind.
func (c *Client) List(ctx context.Context, kind types.EntityKind) ([]wire.EntityPayload, error) {
	reply, err := c.call(ctx, wire.Message{Kind: wire.KindList, Target: kind})
	if err != nil {
		return nil, err
	}
	return reply.Entities, nil
}

// Find looks up entities of kind by UUID or, if uuid is empty, by
// name.
func (c *Client) Find(ctx context.Context, kind types.EntityKind, uuid, name string) ([]wire.EntityPayload, error) {
	reply, err := c.call(ctx, wire.Message{Kind: wire.KindFind, Target: kind, UUID: uuid, Name: name})
	if err != nil {
		return nil, err
	}
	return reply.Entities, nil
}

// Actuate requests actuatorUUID be set to value. ACK only means the
// daemon received the request, not that it was applied.
func (c *Client) Actuate(ctx context.Context, actuatorUUID string, value float64) error {
	_, err := c.call(ctx, wire.Message{Kind: wire.KindActuate, ActuatorUUID: actuatorUUID, Value: value})
	return err
}

// SendEvent pushes one (sensorUUID, scopeUUID, value) sample and
// returns as soon as it's written to the wire — there is no reply to
// wait for. Events arriving before the configured rate-limit interval
// has elapsed since the last accepted send for that sensor are
// silently dropped, grounded on the original downstream API's
// NRM_RATELIMIT gate.
func (c *Client) SendEvent(ctx context.Context, sensorUUID, scopeUUID string, value float64) error {
	if !c.allowSend(sensorUUID) {
		return nil
	}
	return c.send(ctx, wire.Message{
		Kind: wire.KindEvent,
		Event: &wire.EventPayload{
			SensorUUID: sensorUUID, ScopeUUID: scopeUUID,
			Value: value, TimeUnix: time.Now().Unix(),
		},
	})
}

func (c *Client) allowSend(sensorUUID string) bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	now := time.Now()
	if last, ok := c.lastSend[sensorUUID]; ok && now.Sub(last) < c.rateLimit {
		return false
	}
	c.lastSend[sensorUUID] = now
	return true
}

// SendExit notifies the daemon of an orderly session end.
func (c *Client) SendExit(ctx context.Context) error {
	_, err := c.call(ctx, wire.Message{Kind: wire.KindExit})
	return err
}
