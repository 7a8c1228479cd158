package dispatcher

import (
	"github.com/anlsys/libnrm-sub000/internal/bitmap"
	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

func actuatorToPayload(a *types.Actuator) wire.ActuatorPayload {
	return wire.ActuatorPayload{
		UUID:      a.UUID,
		Name:      a.Name,
		ClientID:  a.ClientID,
		ValueKind: a.ValueKind,
		Value:     a.Value,
		Choices:   a.Choices,
		Min:       a.Min,
		Max:       a.Max,
	}
}

func actuatorFromPayload(p *wire.ActuatorPayload) *types.Actuator {
	switch p.ValueKind {
	case types.ActuatorContinuous:
		return types.NewContinuousActuator(p.Name, p.Min, p.Max, p.Value)
	default:
		return types.NewDiscreteActuator(p.Name, p.Choices, p.Value)
	}
}

func scopeToPayload(s *types.Scope) wire.ScopePayload {
	return wire.ScopePayload{
		UUID: s.UUID,
		Name: s.Name,
		CPU:  s.CPU.ToIndices(),
		NUMA: s.NUMA.ToIndices(),
		GPU:  s.GPU.ToIndices(),
	}
}

func scopeFromPayload(p *wire.ScopePayload) (*types.Scope, error) {
	s := types.NewScope(p.Name)
	cpu, err := bitmap.FromIndices(p.CPU)
	if err != nil {
		return nil, err
	}
	numa, err := bitmap.FromIndices(p.NUMA)
	if err != nil {
		return nil, err
	}
	gpu, err := bitmap.FromIndices(p.GPU)
	if err != nil {
		return nil, err
	}
	s.CPU, s.NUMA, s.GPU = cpu, numa, gpu
	return s, nil
}

func sensorToPayload(s *types.Sensor) wire.SensorPayload {
	return wire.SensorPayload{UUID: s.UUID, Name: s.Name}
}

func sliceToPayload(s *types.Slice) wire.SlicePayload {
	return wire.SlicePayload{UUID: s.UUID, Name: s.Name}
}

func entityToPayload(e types.Entity) wire.EntityPayload {
	switch v := e.(type) {
	case *types.Actuator:
		p := actuatorToPayload(v)
		return wire.EntityPayload{Kind: types.EntityActuator, Actuator: &p}
	case *types.Scope:
		p := scopeToPayload(v)
		return wire.EntityPayload{Kind: types.EntityScope, Scope: &p}
	case *types.Sensor:
		p := sensorToPayload(v)
		return wire.EntityPayload{Kind: types.EntitySensor, Sensor: &p}
	case *types.Slice:
		p := sliceToPayload(v)
		return wire.EntityPayload{Kind: types.EntitySlice, Slice: &p}
	default:
		return wire.EntityPayload{}
	}
}
