package types

import (
	"sort"
	"time"

	"github.com/anlsys/libnrm-sub000/internal/bitmap"
)

// EntityKind discriminates the four registered entity kinds.
type EntityKind string

const (
	EntityActuator EntityKind = "actuator"
	EntityScope    EntityKind = "scope"
	EntitySensor   EntityKind = "sensor"
	EntitySlice    EntityKind = "slice"
)

// Entity is satisfied by every registered entity kind.
type Entity interface {
	GetUUID() string
	GetName() string
	Kind() EntityKind
}

// Sensor is a named, UUID-tagged producer handle. It carries no state
// beyond identity in the registry.
type Sensor struct {
	UUID string
	Name string
}

func (s *Sensor) GetUUID() string   { return s.UUID }
func (s *Sensor) GetName() string   { return s.Name }
func (s *Sensor) Kind() EntityKind  { return EntitySensor }

// Slice is a named, UUID-tagged logical workload grouping. Identity-only.
type Slice struct {
	UUID string
	Name string
}

func (s *Slice) GetUUID() string  { return s.UUID }
func (s *Slice) GetName() string  { return s.Name }
func (s *Slice) Kind() EntityKind { return EntitySlice }

// ScopeDomain names one of the three disjoint index spaces a Scope
// draws its bitmaps from.
type ScopeDomain int

const (
	DomainCPU ScopeDomain = iota
	DomainNUMA
	DomainGPU
)

// Scope is a named triple of bitmaps over CPU, NUMA node, and GPU
// index spaces. Scopes are immutable once registered: two scopes
// compare equal iff all three bitmaps are equal.
type Scope struct {
	UUID string
	Name string
	CPU  *bitmap.Bitmap
	NUMA *bitmap.Bitmap
	GPU  *bitmap.Bitmap
}

func (s *Scope) GetUUID() string  { return s.UUID }
func (s *Scope) GetName() string  { return s.Name }
func (s *Scope) Kind() EntityKind { return EntityScope }

// NewScope builds a Scope with empty bitmaps in all three domains.
func NewScope(name string) *Scope {
	return &Scope{
		Name: name,
		CPU:  bitmap.New(),
		NUMA: bitmap.New(),
		GPU:  bitmap.New(),
	}
}

// Add sets index i in the given domain's bitmap.
func (s *Scope) Add(domain ScopeDomain, i int) {
	s.bitmapFor(domain).Set(i)
}

func (s *Scope) bitmapFor(domain ScopeDomain) *bitmap.Bitmap {
	switch domain {
	case DomainNUMA:
		return s.NUMA
	case DomainGPU:
		return s.GPU
	default:
		return s.CPU
	}
}

// Equal reports whether two scopes have identical CPU, NUMA, and GPU
// bitmaps.
func (s *Scope) Equal(o *Scope) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.CPU.Equal(o.CPU) && s.NUMA.Equal(o.NUMA) && s.GPU.Equal(o.GPU)
}

// ActuatorValueKind discriminates the two actuator value shapes.
type ActuatorValueKind string

const (
	ActuatorDiscrete   ActuatorValueKind = "discrete"
	ActuatorContinuous ActuatorValueKind = "continuous"
)

// Actuator is an addressable knob in a producer process. The current
// value is always either the value it was registered with or a value
// previously accepted by the validator. ClientID is set once by the
// server to the identity of the connection that added it and is never
// rewritten.
type Actuator struct {
	UUID      string
	Name      string
	ClientID  string
	ValueKind ActuatorValueKind
	Value     float64

	// Discrete: sorted set of admissible values.
	Choices []float64
	// Continuous: inclusive [Min, Max] range.
	Min float64
	Max float64
}

func (a *Actuator) GetUUID() string  { return a.UUID }
func (a *Actuator) GetName() string  { return a.Name }
func (a *Actuator) Kind() EntityKind { return EntityActuator }

// NewDiscreteActuator builds a discrete actuator with a sorted choice
// set and an initial value.
func NewDiscreteActuator(name string, choices []float64, initial float64) *Actuator {
	sorted := append([]float64(nil), choices...)
	sort.Float64s(sorted)
	return &Actuator{
		Name:      name,
		ValueKind: ActuatorDiscrete,
		Value:     initial,
		Choices:   sorted,
	}
}

// NewContinuousActuator builds a continuous actuator over [min, max]
// with an initial value.
func NewContinuousActuator(name string, min, max, initial float64) *Actuator {
	return &Actuator{
		Name:      name,
		ValueKind: ActuatorContinuous,
		Value:     initial,
		Min:       min,
		Max:       max,
	}
}

// Validate reports whether value is admissible for this actuator: set
// membership for discrete actuators, inclusive range for continuous.
func (a *Actuator) Validate(value float64) bool {
	switch a.ValueKind {
	case ActuatorDiscrete:
		for _, c := range a.Choices {
			if c == value {
				return true
			}
		}
		return false
	case ActuatorContinuous:
		return value >= a.Min && value <= a.Max
	default:
		return false
	}
}

// Event is an immutable (time, value) pair appended to a series.
type Event struct {
	Time  time.Time
	Value float64
}
