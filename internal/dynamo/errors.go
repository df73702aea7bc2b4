package dynamo

import "errors"

// Domain errors for simulation operations. Recoverable conditions
// (degenerate volume, geometry out of range) are clamped locally and
// surfaced as flags; fatal conditions (negative mass, non-finite state)
// halt the worker loop.
var (
	// ErrDegenerateVolume indicates a gas volume collapsed to or below the
	// minimum floor; the volume is clamped and simulation continues.
	ErrDegenerateVolume = errors.New("pneumostab: gas volume at minimum floor (clamped)")

	// ErrNegativeMass indicates a mass-flow update would leave a chamber
	// with negative gas mass. Fatal precondition violation.
	ErrNegativeMass = errors.New("pneumostab: negative gas mass")

	// ErrGeometryOutOfRange indicates a lever angle beyond the hard safety
	// margin; the angle is clamped and the condition flagged.
	ErrGeometryOutOfRange = errors.New("pneumostab: lever angle outside safety margin (clamped)")

	// ErrNonFiniteState indicates the integrator produced NaN or Inf. Fatal.
	ErrNonFiniteState = errors.New("pneumostab: non-finite rigid body state")

	// ErrConfigInvalid indicates a configuration value outside its bounds;
	// the previous valid configuration is retained.
	ErrConfigInvalid = errors.New("pneumostab: invalid configuration")

	// ErrWorkerStopped indicates an operation on a worker already in the
	// terminal Stopped state.
	ErrWorkerStopped = errors.New("pneumostab: worker stopped")
)

// SimulationError wraps an error with step context from the worker loop.
type SimulationError struct {
	Step    uint64
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
