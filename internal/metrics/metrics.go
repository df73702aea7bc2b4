// Package metrics computes ride quality statistics from snapshot
// traces.
//
// The accumulator ingests one snapshot per frame and reports aggregate
// measures at the end of a run:
//
//   - [Accumulator.RMSHeaveAccel]: RMS vertical acceleration, the
//     primary comfort figure
//   - [Accumulator.Report]: peak attitude, receiver pressure envelope,
//     interference and clamp counts
package metrics

import (
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/worker"
)

// Report is the aggregate ride summary of a completed run.
type Report struct {
	Duration      float64 // s
	Frames        int
	Steps         uint64
	RMSHeaveAccel float64 // m/s^2
	MaxAbsHeave   float64 // m
	MaxAbsRoll    float64 // rad
	MaxAbsPitch   float64 // rad
	ReceiverMinP  float64 // Pa
	ReceiverMaxP  float64 // Pa
	Interference  int     // frames with any capsule overlap
	Clamped       uint64  // lever angle clamps over the run
	Degenerate    uint64  // volume floor clamps over the run
}

// Accumulator folds snapshots into running statistics. Heave
// acceleration is differenced from the published velocities, so frames
// must arrive in time order.
type Accumulator struct {
	frames int
	steps  uint64
	t0, t1 float64

	prevVel  float64
	prevTime float64
	sumSqAcc float64
	accN     int

	maxHeave float64
	maxRoll  float64
	maxPitch float64

	recvMin float64
	recvMax float64

	interference int
	clamped      uint64
	degenerate   uint64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{recvMin: math.Inf(1), recvMax: math.Inf(-1)}
}

// Add folds one snapshot into the statistics.
func (a *Accumulator) Add(s *worker.StateSnapshot) {
	if a.frames == 0 {
		a.t0 = s.Time
	} else if dt := s.Time - a.prevTime; dt > 0 {
		acc := (s.Body.HeaveVel - a.prevVel) / dt
		a.sumSqAcc += acc * acc
		a.accN++
	}
	a.prevVel = s.Body.HeaveVel
	a.prevTime = s.Time
	a.t1 = s.Time
	a.frames++
	a.steps = s.Step

	if h := math.Abs(s.Body.Heave); h > a.maxHeave {
		a.maxHeave = h
	}
	if r := math.Abs(s.Body.Roll); r > a.maxRoll {
		a.maxRoll = r
	}
	if p := math.Abs(s.Body.Pitch); p > a.maxPitch {
		a.maxPitch = p
	}

	if s.Receiver.Pressure < a.recvMin {
		a.recvMin = s.Receiver.Pressure
	}
	if s.Receiver.Pressure > a.recvMax {
		a.recvMax = s.Receiver.Pressure
	}

	for _, c := range s.Corners {
		if c.Interference > 0 {
			a.interference++
			break
		}
	}
	a.clamped = s.OutOfRange
	a.degenerate = s.Degenerate
}

// RMSHeaveAccel returns the running RMS vertical acceleration.
func (a *Accumulator) RMSHeaveAccel() float64 {
	if a.accN == 0 {
		return 0
	}
	return math.Sqrt(a.sumSqAcc / float64(a.accN))
}

// Report finalizes the statistics.
func (a *Accumulator) Report() Report {
	r := Report{
		Duration:      a.t1 - a.t0,
		Frames:        a.frames,
		Steps:         a.steps,
		RMSHeaveAccel: a.RMSHeaveAccel(),
		MaxAbsHeave:   a.maxHeave,
		MaxAbsRoll:    a.maxRoll,
		MaxAbsPitch:   a.maxPitch,
		ReceiverMinP:  a.recvMin,
		ReceiverMaxP:  a.recvMax,
		Interference:  a.interference,
		Clamped:       a.clamped,
		Degenerate:    a.degenerate,
	}
	if a.frames == 0 {
		r.ReceiverMinP = 0
		r.ReceiverMaxP = 0
	}
	return r
}
