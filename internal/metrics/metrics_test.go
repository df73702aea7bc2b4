package metrics

import (
	"math"
	"testing"

	"github.com/barmaleii77-hub/pneumostab/internal/chassis"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/worker"
)

func snap(t float64, step uint64, body chassis.RigidBodyState, recvP float64) *worker.StateSnapshot {
	return &worker.StateSnapshot{
		Time:     t,
		Step:     step,
		Body:     body,
		Receiver: pneumo.GasState{Pressure: recvP, Temperature: 293.15, Volume: 0.02},
	}
}

func TestAccumulator_Empty(t *testing.T) {
	r := NewAccumulator().Report()
	if r.Frames != 0 || r.RMSHeaveAccel != 0 || r.ReceiverMinP != 0 {
		t.Errorf("empty report not zeroed: %+v", r)
	}
}

func TestAccumulator_ConstantAccel(t *testing.T) {
	a := NewAccumulator()
	// Velocity ramps at 2 m/s^2 over uniform 10 ms frames.
	for i := 0; i <= 100; i++ {
		tv := float64(i) * 0.01
		a.Add(snap(tv, uint64(i*10), chassis.RigidBodyState{HeaveVel: 2 * tv}, 3e5))
	}
	if got := a.RMSHeaveAccel(); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("rms accel = %g, want 2.0", got)
	}
}

func TestAccumulator_Peaks(t *testing.T) {
	a := NewAccumulator()
	a.Add(snap(0, 0, chassis.RigidBodyState{Heave: 0.01, Roll: -0.02, Pitch: 0.005}, 2.9e5))
	a.Add(snap(0.01, 10, chassis.RigidBodyState{Heave: -0.03, Roll: 0.01, Pitch: -0.015}, 3.2e5))
	r := a.Report()

	if r.MaxAbsHeave != 0.03 {
		t.Errorf("max heave = %g, want 0.03", r.MaxAbsHeave)
	}
	if r.MaxAbsRoll != 0.02 {
		t.Errorf("max roll = %g, want 0.02", r.MaxAbsRoll)
	}
	if r.MaxAbsPitch != 0.015 {
		t.Errorf("max pitch = %g, want 0.015", r.MaxAbsPitch)
	}
	if r.ReceiverMinP != 2.9e5 || r.ReceiverMaxP != 3.2e5 {
		t.Errorf("receiver envelope [%g, %g], want [2.9e5, 3.2e5]", r.ReceiverMinP, r.ReceiverMaxP)
	}
	if r.Duration != 0.01 {
		t.Errorf("duration = %g, want 0.01", r.Duration)
	}
	if r.Steps != 10 {
		t.Errorf("steps = %d, want 10", r.Steps)
	}
}

func TestAccumulator_InterferenceFrames(t *testing.T) {
	a := NewAccumulator()
	clean := snap(0, 0, chassis.RigidBodyState{}, 3e5)
	a.Add(clean)

	foul := snap(0.01, 10, chassis.RigidBodyState{}, 3e5)
	foul.Corners[1].Interference = 0.002
	foul.Corners[3].Interference = 0.001 // same frame counts once
	a.Add(foul)

	if got := a.Report().Interference; got != 1 {
		t.Errorf("interference frames = %d, want 1", got)
	}
}
