package krill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// countingRun records every invocation and the elapsed values handed out.
type countingRun struct {
	calls   int
	elapsed []float64
}

func (c *countingRun) Setup(*Dispatcher)          {}
func (c *countingRun) Run(dt float64, worker int) { c.calls++; c.elapsed = append(c.elapsed, dt) }

func ticked(mode TickMode, delay float64) (*tickedSystem, *countingRun) {
	sys := &countingRun{}
	return &tickedSystem{sys: sys, mode: mode, delay: delay, enabled: true}, sys
}

func TestLooseTick(t *testing.T) {
	ts, sys := ticked(Loose, 0.5)
	for i := 0; i < 3; i++ {
		ts.dispatch(0.016, 0)
	}
	assert.Equal(t, 3, sys.calls, "loose runs once per frame regardless of delay")
	assert.Equal(t, []float64{0.016, 0.016, 0.016}, sys.elapsed)
}

func TestSemiLooseTick(t *testing.T) {
	ts, sys := ticked(SemiLoose, 0.03)
	ts.dispatch(0.02, 0)
	assert.Zero(t, sys.calls)
	ts.dispatch(0.02, 0)
	assert.Equal(t, 1, sys.calls)
	assert.InDelta(t, 0.04, sys.elapsed[0], 1e-9, "invoked with the whole accumulator")
	assert.Zero(t, ts.acc, "accumulator resets to zero")
}

func TestSemiFixedTick(t *testing.T) {
	ts, sys := ticked(SemiFixed, 0.01)
	ts.dispatch(0.025, 0)
	assert.Equal(t, 2, sys.calls)
	for _, dt := range sys.elapsed {
		assert.InDelta(t, 0.01, dt, 1e-9)
	}
	assert.InDelta(t, 0.005, ts.acc, 1e-9, "remainder carries forward")
}

func TestFixedTick(t *testing.T) {
	ts, sys := ticked(Fixed, 0.01)
	ts.dispatch(0.025, 0)
	assert.Equal(t, 2, sys.calls)
	assert.Equal(t, []float64{0.01, 0.01}, sys.elapsed)
	assert.InDelta(t, 0.005, ts.acc, 1e-9)

	ts.dispatch(0.025, 0)
	assert.Equal(t, 5, sys.calls, "carried remainder yields a third step")
	assert.InDelta(t, 0.0, ts.acc, 1e-9)
}

func TestFixedTickNeverOutrunsRealTime(t *testing.T) {
	ts, sys := ticked(Fixed, 0.01)
	total := 0.0
	for i := 0; i < 100; i++ {
		dt := 0.013
		total += dt
		ts.dispatch(dt, 0)
	}
	simulated := float64(sys.calls) * 0.01
	assert.LessOrEqual(t, simulated, total)
	assert.GreaterOrEqual(t, ts.acc, 0.0)
	assert.Less(t, ts.acc, 0.01, "accumulator stays below one delay")
}

func TestDisabledSystemDoesNotAccumulate(t *testing.T) {
	ts, sys := ticked(Fixed, 0.01)
	ts.enabled = false
	for i := 0; i < 10; i++ {
		ts.dispatch(0.02, 0)
	}
	assert.Zero(t, sys.calls)
	assert.Zero(t, ts.acc, "disabled time is dropped, not banked")

	ts.enabled = true
	ts.dispatch(0.02, 0)
	assert.Equal(t, 2, sys.calls)
}

func TestZeroDelayDegeneratesToLoose(t *testing.T) {
	ts, sys := ticked(Fixed, 0)
	ts.dispatch(0.016, 0)
	assert.Equal(t, 1, sys.calls)
	assert.Equal(t, 0.016, sys.elapsed[0])
}

func TestTickModeString(t *testing.T) {
	assert.Equal(t, "Loose", Loose.String())
	assert.Equal(t, "SemiLoose", SemiLoose.String())
	assert.Equal(t, "SemiFixed", SemiFixed.String())
	assert.Equal(t, "Fixed", Fixed.String())
}
