package state

import (
	"fmt"
	"sync"

	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/uuidgen"
)

// Tables is the daemon's entity registry, one hash table per entity
// kind.
type Tables struct {
	mu sync.RWMutex

	actuators map[string]*types.Actuator
	scopes    map[string]*types.Scope
	sensors   map[string]*types.Sensor
	slices    map[string]*types.Slice
}

// New allocates an empty set of tables.
func New() *Tables {
	return &Tables{
		actuators: make(map[string]*types.Actuator),
		scopes:    make(map[string]*types.Scope),
		sensors:   make(map[string]*types.Sensor),
		slices:    make(map[string]*types.Slice),
	}
}

// AddActuator assigns a a fresh UUID and registers it.
func (t *Tables) AddActuator(a *types.Actuator) *types.Actuator {
	t.mu.Lock()
	defer t.mu.Unlock()
	a.UUID = uuidgen.New()
	t.actuators[a.UUID] = a
	return a
}

// AddScope assigns a fresh UUID and registers it.
func (t *Tables) AddScope(s *types.Scope) *types.Scope {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.UUID = uuidgen.New()
	t.scopes[s.UUID] = s
	return s
}

// AddSensor assigns a fresh UUID and registers it.
func (t *Tables) AddSensor(s *types.Sensor) *types.Sensor {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.UUID = uuidgen.New()
	t.sensors[s.UUID] = s
	return s
}

// AddSlice assigns a fresh UUID and registers it.
func (t *Tables) AddSlice(s *types.Slice) *types.Slice {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.UUID = uuidgen.New()
	t.slices[s.UUID] = s
	return s
}

// RemoveActuator deletes an actuator by UUID. Reports whether it was
// present.
func (t *Tables) RemoveActuator(uuid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.actuators[uuid]; !ok {
		return false
	}
	delete(t.actuators, uuid)
	return true
}

// RemoveScope deletes a scope by UUID. Reports whether it was present.
func (t *Tables) RemoveScope(uuid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.scopes[uuid]; !ok {
		return false
	}
	delete(t.scopes, uuid)
	return true
}

// RemoveSensor deletes a sensor by UUID. Reports whether it was
// present.
func (t *Tables) RemoveSensor(uuid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sensors[uuid]; !ok {
		return false
	}
	delete(t.sensors, uuid)
	return true
}

// RemoveSlice deletes a slice by UUID. Reports whether it was present.
func (t *Tables) RemoveSlice(uuid string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.slices[uuid]; !ok {
		return false
	}
	delete(t.slices, uuid)
	return true
}

// FindActuatorByUUID looks up an actuator by UUID.
func (t *Tables) FindActuatorByUUID(uuid string) (*types.Actuator, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.actuators[uuid]
	return a, ok
}

// FindScopeByUUID looks up a scope by UUID.
func (t *Tables) FindScopeByUUID(uuid string) (*types.Scope, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.scopes[uuid]
	return s, ok
}

// FindSensorByUUID looks up a sensor by UUID.
func (t *Tables) FindSensorByUUID(uuid string) (*types.Sensor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sensors[uuid]
	return s, ok
}

// FindSliceByUUID looks up a slice by UUID.
func (t *Tables) FindSliceByUUID(uuid string) (*types.Slice, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.slices[uuid]
	return s, ok
}

// FindByName performs a linear scan for the first entity of kind
// whose Name matches, the fallback path FIND uses when a caller has no
// UUID to look up by.
func (t *Tables) FindByName(kind types.EntityKind, name string) (types.Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch kind {
	case types.EntityActuator:
		for _, a := range t.actuators {
			if a.Name == name {
				return a, true
			}
		}
	case types.EntityScope:
		for _, s := range t.scopes {
			if s.Name == name {
				return s, true
			}
		}
	case types.EntitySensor:
		for _, s := range t.sensors {
			if s.Name == name {
				return s, true
			}
		}
	case types.EntitySlice:
		for _, s := range t.slices {
			if s.Name == name {
				return s, true
			}
		}
	}
	return nil, false
}

// ListActuators returns every registered actuator.
func (t *Tables) ListActuators() []*types.Actuator {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*types.Actuator, 0, len(t.actuators))
	for _, a := range t.actuators {
		out = append(out, a)
	}
	return out
}

// ListScopes returns every registered scope.
func (t *Tables) ListScopes() []*types.Scope {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*types.Scope, 0, len(t.scopes))
	for _, s := range t.scopes {
		out = append(out, s)
	}
	return out
}

// ListSensors returns every registered sensor.
func (t *Tables) ListSensors() []*types.Sensor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*types.Sensor, 0, len(t.sensors))
	for _, s := range t.sensors {
		out = append(out, s)
	}
	return out
}

// ListSlices returns every registered slice.
func (t *Tables) ListSlices() []*types.Slice {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*types.Slice, 0, len(t.slices))
	for _, s := range t.slices {
		out = append(out, s)
	}
	return out
}

// ErrNotFound is the sentinel for a missing entity. The Tables methods
// themselves report absence with a bool rather than returning it.
var ErrNotFound = fmt.Errorf("state: entity not found")
