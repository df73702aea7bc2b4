package chassis

import (
	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/integrators"
)

// RigidBodyState is a snapshot of the chassis pose and rates.
type RigidBodyState struct {
	Heave    float64 // m, positive up
	Roll     float64 // rad, about x
	Pitch    float64 // rad, about y
	HeaveVel float64 // m/s
	RollVel  float64 // rad/s
	PitchVel float64 // rad/s
}

// Solver advances a Body through time with a fixed-step integrator and
// guards every step against non-finite results.
type Solver struct {
	body *Body
	ig   dynamo.Integrator

	state dynamo.State
	time  float64
	steps uint64
}

func NewSolver(body *Body) *Solver {
	return &Solver{
		body:  body,
		ig:    integrators.NewRK4(),
		state: make(dynamo.State, body.StateDim()),
	}
}

// SetIntegrator swaps the integrator, for experiments with scheme order.
func (s *Solver) SetIntegrator(ig dynamo.Integrator) { s.ig = ig }

func (s *Solver) Body() *Body   { return s.body }
func (s *Solver) Time() float64 { return s.time }
func (s *Solver) Steps() uint64 { return s.steps }

// Reset returns the chassis to rest at the origin.
func (s *Solver) Reset() {
	for i := range s.state {
		s.state[i] = 0
	}
	s.time = 0
	s.steps = 0
}

// Step advances one fixed time step under the given corner forces.
// A non-finite result leaves the previous state intact and reports
// ErrNonFiniteState wrapped with the step number and time.
func (s *Solver) Step(dt float64, forces [4]float64) (RigidBodyState, error) {
	u := dynamo.Control{forces[0], forces[1], forces[2], forces[3]}
	next := s.ig.Step(s.body, s.state, u, s.time, dt)
	if !next.IsValid() {
		return s.State(), &dynamo.SimulationError{
			Step:    s.steps,
			Time:    s.time,
			Wrapped: dynamo.ErrNonFiniteState,
		}
	}
	copy(s.state, next)
	s.time += dt
	s.steps++
	return s.State(), nil
}

// State returns the current pose without advancing time.
func (s *Solver) State() RigidBodyState {
	return RigidBodyState{
		Heave:    s.state[0],
		Roll:     s.state[1],
		Pitch:    s.state[2],
		HeaveVel: s.state[3],
		RollVel:  s.state[4],
		PitchVel: s.state[5],
	}
}

// Energy reports the kinetic energy at the current state.
func (s *Solver) Energy() float64 { return s.body.Energy(s.state) }
