package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	msg := wire.Message{
		Kind:   wire.KindAdd,
		Target: types.EntityActuator,
		Actuator: &wire.ActuatorPayload{
			Name:      "power-cap",
			ValueKind: types.ActuatorDiscrete,
			Choices:   []float64{0, 0.5, 1},
			Value:     0.5,
		},
	}

	b, err := wire.Pack(msg)
	require.NoError(t, err)

	got, err := wire.Unpack(b)
	require.NoError(t, err)

	assert.Equal(t, msg.Kind, got.Kind)
	assert.Equal(t, msg.Target, got.Target)
	require.NotNil(t, got.Actuator)
	assert.Equal(t, msg.Actuator.Name, got.Actuator.Name)
	assert.Equal(t, msg.Actuator.Choices, got.Actuator.Choices)
}

func TestUnpackIgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"kind":"ack","future_field":{"nested":true}}`)
	got, err := wire.Unpack(raw)
	require.NoError(t, err)
	assert.Equal(t, wire.KindACK, got.Kind)
}

func TestRPCFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	routingID := []byte("peer-1")
	payload := []byte(`{"kind":"tick"}`)

	require.NoError(t, wire.WriteRPCFrame(&buf, routingID, payload))

	gotID, gotPayload, err := wire.ReadRPCFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, routingID, gotID)
	assert.Equal(t, payload, gotPayload)
}

func TestRPCFrameEmptyRoutingID(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"kind":"exit"}`)

	require.NoError(t, wire.WriteRPCFrame(&buf, nil, payload))

	gotID, gotPayload, err := wire.ReadRPCFrame(&buf)
	require.NoError(t, err)
	assert.Len(t, gotID, 0)
	assert.Equal(t, payload, gotPayload)
}

func TestPubFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"kind":"events"}`)

	require.NoError(t, wire.WritePubFrame(&buf, "nrm.events", payload))

	gotTopic, gotPayload, err := wire.ReadPubFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "nrm.events", gotTopic)
	assert.Equal(t, payload, gotPayload)
}

func TestMultipleFramesSequential(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteRPCFrame(&buf, []byte("a"), []byte("1")))
	require.NoError(t, wire.WriteRPCFrame(&buf, []byte("b"), []byte("2")))

	id1, p1, err := wire.ReadRPCFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), id1)
	assert.Equal(t, []byte("1"), p1)

	id2, p2, err := wire.ReadRPCFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), id2)
	assert.Equal(t, []byte("2"), p2)
}

func TestClassify(t *testing.T) {
	assert.True(t, wire.Classify(wire.KindACK))
	assert.True(t, wire.Classify(wire.KindNAK))
	assert.True(t, wire.Classify(wire.KindList))
	assert.True(t, wire.Classify(wire.KindEvents))
	assert.False(t, wire.Classify(wire.KindActuate))
	assert.False(t, wire.Classify(wire.KindTick))
	assert.False(t, wire.Classify(wire.KindAdd))
}
