package wire

import (
	"encoding/json"
	"fmt"

	"github.com/anlsys/libnrm-sub000/internal/types"
)

// MessageKind discriminates the wire message union.
type MessageKind string

const (
	KindACK MessageKind = "ack"
	KindNAK MessageKind = "nak"

	KindAdd    MessageKind = "add"
	KindRemove MessageKind = "remove"
	KindList   MessageKind = "list"
	KindFind   MessageKind = "find"

	KindEvent  MessageKind = "event"
	KindEvents MessageKind = "events"

	KindActuate MessageKind = "actuate"
	KindExit    MessageKind = "exit"
	KindTick    MessageKind = "tick"

	// KindCompleted is reserved for a future split of ACK into
	// "accepted" and "completed" acknowledgements (see the Open
	// Question resolution). No producer emits it yet.
	KindCompleted MessageKind = "completed"
)

// ActuatorPayload carries an actuator's full description.
type ActuatorPayload struct {
	UUID      string                  `json:"uuid,omitempty"`
	Name      string                  `json:"name"`
	ClientID  string                  `json:"client_id,omitempty"`
	ValueKind types.ActuatorValueKind `json:"value_kind"`
	Value     float64                 `json:"value"`
	Choices   []float64               `json:"choices,omitempty"`
	Min       float64                 `json:"min,omitempty"`
	Max       float64                 `json:"max,omitempty"`
}

// ScopePayload carries a scope's name and per-domain index lists.
type ScopePayload struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name"`
	CPU  []int  `json:"cpu,omitempty"`
	NUMA []int  `json:"numa,omitempty"`
	GPU  []int  `json:"gpu,omitempty"`
}

// SensorPayload carries a sensor's identity.
type SensorPayload struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name"`
}

// SlicePayload carries a slice's identity.
type SlicePayload struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name"`
}

// EventPayload carries one raw (sensor, scope, value) sample.
type EventPayload struct {
	SensorUUID string  `json:"sensor_uuid"`
	ScopeUUID  string  `json:"scope_uuid"`
	Value      float64 `json:"value"`
	TimeUnix   int64   `json:"time_unix"`
}

// SeriesPayload carries one sensor/scope series' current snapshot,
// used in an EVENTS broadcast.
type SeriesPayload struct {
	SensorUUID string        `json:"sensor_uuid"`
	ScopeUUID  string        `json:"scope_uuid"`
	Current    []EventPayload `json:"current,omitempty"`
	Past       []EventPayload `json:"past,omitempty"`
}

// EntityPayload carries one registry entity, tagged by kind, for LIST
// and FIND replies.
type EntityPayload struct {
	Kind     types.EntityKind `json:"kind"`
	Actuator *ActuatorPayload `json:"actuator,omitempty"`
	Scope    *ScopePayload    `json:"scope,omitempty"`
	Sensor   *SensorPayload   `json:"sensor,omitempty"`
	Slice    *SlicePayload    `json:"slice,omitempty"`
}

// Message is the single wire-level envelope for every RPC request,
// RPC reply, and pub/sub broadcast.
type Message struct {
	Kind MessageKind `json:"kind"`

	// Reason carries a human-readable NAK explanation.
	Reason string `json:"reason,omitempty"`

	// Target names the entity kind an ADD/REMOVE/LIST/FIND concerns.
	Target types.EntityKind `json:"target,omitempty"`

	Actuator *ActuatorPayload `json:"actuator,omitempty"`
	Scope    *ScopePayload    `json:"scope,omitempty"`
	Sensor   *SensorPayload   `json:"sensor,omitempty"`
	Slice    *SlicePayload    `json:"slice,omitempty"`

	// UUID names the entity a REMOVE/FIND concerns (ACTUATE uses
	// ActuatorUUID instead).
	UUID string `json:"uuid,omitempty"`
	// Name is used by FIND-by-name lookups.
	Name string `json:"name,omitempty"`

	Event  *EventPayload   `json:"event,omitempty"`
	Events []SeriesPayload `json:"events,omitempty"`

	ActuatorUUID string  `json:"actuator_uuid,omitempty"`
	Value        float64 `json:"value,omitempty"`

	Entities []EntityPayload `json:"entities,omitempty"`
}

// Pack encodes a Message as JSON.
func Pack(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("wire: pack: %w", err)
	}
	return b, nil
}

// Unpack decodes a JSON-encoded Message.
func Unpack(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("wire: unpack: %w", err)
	}
	return m, nil
}

// Classify reports whether a message kind is treated as a reply
// (delivered to a pending Recv) as opposed to a command (handed to the
// cmd callback). ACK, NAK, LIST, EVENTS and the reserved COMPLETED are
// replies; every other kind, including the ADD/REMOVE/FIND requests,
// ACTUATE and TICK, is a command.
func Classify(k MessageKind) (isReply bool) {
	switch k {
	case KindACK, KindNAK, KindList, KindEvents, KindCompleted:
		return true
	default:
		return false
	}
}
