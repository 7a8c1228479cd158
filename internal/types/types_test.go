package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anlsys/libnrm-sub000/internal/types"
)

func TestScopeEqualIffBitmapsEqual(t *testing.T) {
	a := types.NewScope("a")
	a.Add(types.DomainCPU, 0)
	a.Add(types.DomainCPU, 1)

	b := types.NewScope("b")
	b.Add(types.DomainCPU, 1)
	b.Add(types.DomainCPU, 0)

	assert.True(t, a.Equal(b), "scopes with identical bitmaps compare equal regardless of name")

	c := types.NewScope("c")
	c.Add(types.DomainCPU, 0)
	assert.False(t, a.Equal(c))
}

func TestDiscreteActuatorValidate(t *testing.T) {
	act := types.NewDiscreteActuator("power-cap", []float64{1.0, 0.0, 0.5}, 0.0)
	assert.Equal(t, []float64{0.0, 0.5, 1.0}, act.Choices)

	assert.True(t, act.Validate(0.5))
	assert.False(t, act.Validate(0.3))
}

func TestContinuousActuatorValidate(t *testing.T) {
	act := types.NewContinuousActuator("freq", 1.0, 3.0, 2.0)
	assert.True(t, act.Validate(1.0))
	assert.True(t, act.Validate(3.0))
	assert.True(t, act.Validate(2.5))
	assert.False(t, act.Validate(0.9))
	assert.False(t, act.Validate(3.1))
}

func TestEntityKinds(t *testing.T) {
	var e types.Entity

	e = &types.Sensor{UUID: "u1", Name: "s"}
	assert.Equal(t, types.EntitySensor, e.Kind())

	e = &types.Slice{UUID: "u2", Name: "sl"}
	assert.Equal(t, types.EntitySlice, e.Kind())

	e = types.NewScope("sc")
	assert.Equal(t, types.EntityScope, e.Kind())

	e = types.NewDiscreteActuator("a", []float64{0, 1}, 0)
	assert.Equal(t, types.EntityActuator, e.Kind())
}
