package integrators

import (
	"testing"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int   { return 6 }
func (b *benchDynamics) ControlDim() int { return 4 }
func (b *benchDynamics) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	// Decoupled linear stand-in with the chassis state layout.
	return dynamo.State{x[3], x[4], x[5], -x[0] * 10, -x[1] * 5, -x[2] * 5}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchDynamics{}
	x := dynamo.State{0.01, 0, 0, 0, 0, 0}
	u := dynamo.Control{100, 100, 100, 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.001)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchDynamics{}
	x := dynamo.State{0.01, 0, 0, 0, 0, 0}
	u := dynamo.Control{100, 100, 100, 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.001)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchDynamics{}
	x := dynamo.State{0.01, 0, 0, 0, 0, 0}
	u := dynamo.Control{100, 100, 100, 100}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, u, 0, 0.001)
	}
}
