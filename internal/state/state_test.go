package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anlsys/libnrm-sub000/internal/state"
	"github.com/anlsys/libnrm-sub000/internal/types"
)

func TestAddAssignsUUID(t *testing.T) {
	tbl := state.New()
	s := tbl.AddSensor(&types.Sensor{Name: "sensor-a"})
	assert.NotEmpty(t, s.UUID)

	got, ok := tbl.FindSensorByUUID(s.UUID)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestRemoveByUUID(t *testing.T) {
	tbl := state.New()
	sl := tbl.AddSlice(&types.Slice{Name: "slice-a"})

	assert.True(t, tbl.RemoveSlice(sl.UUID))
	assert.False(t, tbl.RemoveSlice(sl.UUID))

	_, ok := tbl.FindSliceByUUID(sl.UUID)
	assert.False(t, ok)
}

func TestFindByName(t *testing.T) {
	tbl := state.New()
	tbl.AddScope(&types.Scope{Name: "whole-node", CPU: nil, NUMA: nil, GPU: nil})

	got, ok := tbl.FindByName(types.EntityScope, "whole-node")
	require.True(t, ok)
	assert.Equal(t, types.EntityScope, got.Kind())

	_, ok = tbl.FindByName(types.EntityScope, "missing")
	assert.False(t, ok)
}

func TestListReturnsAll(t *testing.T) {
	tbl := state.New()
	tbl.AddActuator(types.NewDiscreteActuator("a1", []float64{0, 1}, 0))
	tbl.AddActuator(types.NewDiscreteActuator("a2", []float64{0, 1}, 0))

	assert.Len(t, tbl.ListActuators(), 2)
}
