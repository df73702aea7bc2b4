// Package worker runs the suspension simulation on a fixed physics
// step behind a real-time frame loop, publishing snapshots through a
// latest-wins ring and accepting typed parameter updates between steps.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/barmaleii77-hub/pneumostab/internal/chassis"
	"github.com/barmaleii77-hub/pneumostab/internal/config"
	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/kinematics"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
)

// RunState is the worker lifecycle phase.
type RunState int32

const (
	Idle RunState = iota
	Running
	Paused
	Stopped
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("runstate(%d)", int32(s))
	}
}

// CornerSnapshot is the published state of one suspension corner. The
// embedded Geometry carries the solved world-space attachment points
// (pivot, lever end, rod attach, cylinder tail, piston) alongside the
// lever angle, stroke and interference flags, so a renderer can draw
// the linkage from the snapshot alone.
type CornerSnapshot struct {
	kinematics.Geometry

	Head  pneumo.GasState
	Rod   pneumo.GasState
	Force float64 // N
}

// StateSnapshot is the full simulation state published once per frame.
type StateSnapshot struct {
	Time       float64
	Step       uint64
	Body       chassis.RigidBodyState
	Corners    [4]CornerSnapshot
	Receiver   pneumo.GasState
	Valves     []pneumo.ValveStatus
	Road       [4]road.Wheel
	Degenerate uint64 // cumulative volume floor clamps
	OutOfRange uint64 // cumulative clamped lever angles
	Pending    int    // sub-steps deferred by backpressure
}

const updateQueueCap = 16

// Worker owns every simulation subsystem and is the only goroutine that
// touches them while running. Consumers observe it exclusively through
// the snapshot ring.
type Worker struct {
	cfg *config.Config
	log zerolog.Logger

	pneu    *pneumo.System
	corners [4]*kinematics.Corner
	solver  *chassis.Solver
	excite  *road.Excitation

	ring    *Ring
	updates chan Update

	state atomic.Int32

	// owed tracks simulation time debt in sub-steps, carried across
	// frames when the step cap or frame budget cuts a frame short.
	owed       float64
	outOfRange uint64

	mu      sync.Mutex
	lastErr error
}

func New(cfg *config.Config, log zerolog.Logger) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pcfg, err := cfg.BuildPneumo()
	if err != nil {
		return nil, err
	}
	pneu, err := pneumo.NewSystem(pcfg)
	if err != nil {
		return nil, err
	}

	body, err := chassis.NewBody(cfg.BuildChassis())
	if err != nil {
		return nil, err
	}
	// The static corner forces at neutral stroke become the preload, so
	// a quiescent start holds the body at rest.
	var preload [4]float64
	for i, c := range pneu.Corners {
		preload[i] = c.Force()
	}
	body.SetPreload(preload)

	excite, err := road.NewExcitation(cfg.Road)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		cfg:     cfg,
		log:     log,
		pneu:    pneu,
		solver:  chassis.NewSolver(body),
		excite:  excite,
		ring:    NewRing(),
		updates: make(chan Update, updateQueueCap),
	}

	sides := [4]float64{1, -1, 1, -1}
	ends := [4]float64{1, 1, -1, -1}
	for i, name := range pneumo.CornerNames {
		kcfg := kinematics.DefaultCorner(name, sides[i], ends[i])
		kcfg.LeverLength = cfg.Lever.LeverLength
		kcfg.RodFraction = cfg.Lever.RodFraction
		kcfg.RodLength = cfg.Lever.RodLength
		kcfg.MaxAngle = cfg.Lever.MaxAngle
		kcfg.SafetyMargin = cfg.Lever.SafetyMargin
		corner, err := kinematics.NewCorner(kcfg)
		if err != nil {
			return nil, err
		}
		w.corners[i] = corner
	}

	w.state.Store(int32(Idle))
	return w, nil
}

func (w *Worker) State() RunState { return RunState(w.state.Load()) }
func (w *Worker) Ring() *Ring     { return w.ring }
func (w *Worker) Time() float64   { return w.solver.Time() }
func (w *Worker) Steps() uint64   { return w.solver.Steps() }

// The following accessors are safe only from the goroutine driving
// Advance; the tui calls both from its update loop.

func (w *Worker) IsolationOpen() bool     { return w.pneu.IsolationOpen() }
func (w *Worker) ThermoMode() string      { return w.pneu.ThermoMode().String() }
func (w *Worker) RoadConfig() road.Config { return w.excite.Config() }

// LastErr returns the error that stopped the worker, if any.
func (w *Worker) LastErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

// Start moves the worker from Idle to Running.
func (w *Worker) Start() error {
	if !w.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return fmt.Errorf("%w: start from %s", dynamo.ErrWorkerStopped, w.State())
	}
	w.log.Info().
		Float64("dt", w.cfg.Sim.PhysicsDt).
		Int("step_cap", w.cfg.Sim.MaxStepsPerFrame).
		Msg("worker started")
	return nil
}

// Pause freezes physics; updates queued while paused still apply.
func (w *Worker) Pause() error {
	if !w.state.CompareAndSwap(int32(Running), int32(Paused)) {
		return fmt.Errorf("%w: pause from %s", dynamo.ErrWorkerStopped, w.State())
	}
	w.log.Info().Float64("t", w.solver.Time()).Msg("worker paused")
	return nil
}

func (w *Worker) Resume() error {
	if !w.state.CompareAndSwap(int32(Paused), int32(Running)) {
		return fmt.Errorf("%w: resume from %s", dynamo.ErrWorkerStopped, w.State())
	}
	w.log.Info().Float64("t", w.solver.Time()).Msg("worker resumed")
	return nil
}

// Stop terminates the worker at a step boundary and publishes a final
// snapshot so consumers see the terminal state. Stop is idempotent.
func (w *Worker) Stop() {
	prev := RunState(w.state.Swap(int32(Stopped)))
	if prev == Stopped {
		return
	}
	w.drainUpdates()
	w.ring.Publish(w.snapshot())
	w.log.Info().
		Float64("t", w.solver.Time()).
		Uint64("steps", w.solver.Steps()).
		Msg("worker stopped")
}

// Apply validates and enqueues a parameter update. It never blocks; a
// full queue rejects the message.
func (w *Worker) Apply(u Update) error {
	if w.State() == Stopped {
		return dynamo.ErrWorkerStopped
	}
	if err := u.Validate(); err != nil {
		return err
	}
	select {
	case w.updates <- u:
		return nil
	default:
		return fmt.Errorf("%w: update queue full", dynamo.ErrConfigInvalid)
	}
}

func (w *Worker) drainUpdates() {
	for {
		select {
		case u := <-w.updates:
			if err := u.apply(w); err != nil {
				w.log.Warn().Err(err).Type("update", u).Msg("update rejected")
			}
		default:
			return
		}
	}
}

// Advance runs one frame worth of physics for the given elapsed wall
// time in seconds, bounded by the per-frame step cap and frame budget.
// Exactly one snapshot is published per call in Running and Paused.
// Deferred sub-steps carry over to the next frame.
func (w *Worker) Advance(elapsed float64) (*StateSnapshot, error) {
	switch w.State() {
	case Idle, Stopped:
		return nil, nil
	case Paused:
		w.drainUpdates()
		s := w.snapshot()
		w.ring.Publish(s)
		return s, nil
	}

	w.drainUpdates()

	dt := w.cfg.Sim.PhysicsDt
	w.owed += elapsed / dt
	budget := time.Duration(w.cfg.Sim.MaxFrameTime * float64(time.Second))
	start := time.Now()

	executed := 0
	for float64(executed+1) <= w.owed && executed < w.cfg.Sim.MaxStepsPerFrame {
		if executed > 0 && time.Since(start) > budget {
			break
		}
		if err := w.subStep(dt); err != nil {
			w.setErr(err)
			w.state.Store(int32(Stopped))
			w.owed = 0
			s := w.snapshot()
			w.ring.Publish(s)
			w.log.Error().Err(err).Float64("t", w.solver.Time()).Msg("worker halted")
			return s, err
		}
		executed++
	}
	w.owed -= float64(executed)

	s := w.snapshot()
	w.ring.Publish(s)
	return s, nil
}

// subStep advances the coupled system one physics step: road sample to
// lever angles, angles to geometry and strokes, strokes through the gas
// network to corner forces, forces into the rigid body.
func (w *Worker) subStep(dt float64) error {
	t := w.solver.Time()
	samples := w.excite.Sample(t)

	body := w.solver.State()
	pose := kinematics.Pose{Heave: body.Heave, Roll: body.Roll, Pitch: body.Pitch}

	var strokes [4]float64
	for i, c := range w.corners {
		angle := c.AngleForWheelTravel(samples[i].Disp)
		geo, err := c.Solve(angle, pose)
		if err != nil {
			if !errors.Is(err, dynamo.ErrGeometryOutOfRange) {
				return err
			}
			// Clamped geometry remains usable; count and continue.
			w.outOfRange++
		}
		strokes[i] = geo.Stroke
	}

	forces, err := w.pneu.Step(dt, strokes)
	if err != nil {
		return err
	}

	_, err = w.solver.Step(dt, forces)
	return err
}

func (w *Worker) snapshot() *StateSnapshot {
	t := w.solver.Time()
	body := w.solver.State()
	pose := kinematics.Pose{Heave: body.Heave, Roll: body.Roll, Pitch: body.Pitch}
	samples := w.excite.Sample(t)

	s := &StateSnapshot{
		Time:       t,
		Step:       w.solver.Steps(),
		Body:       body,
		Receiver:   w.pneu.Receiver.Clone(),
		Valves:     w.pneu.Network().ValveStates(),
		Road:       samples,
		Degenerate: w.pneu.DegenerateCount(),
		OutOfRange: w.outOfRange,
		Pending:    int(w.owed),
	}
	for i, pc := range w.pneu.Corners {
		angle := w.corners[i].AngleForWheelTravel(samples[i].Disp)
		geo, _ := w.corners[i].Solve(angle, pose)
		s.Corners[i] = CornerSnapshot{
			Geometry: geo,
			Head:     pc.Head.Clone(),
			Rod:      pc.Rod.Clone(),
			Force:    pc.Force(),
		}
	}
	return s
}

// Run drives the worker from a real-time ticker at the render rate
// until the context is cancelled or the worker stops. The caller
// consumes snapshots from Ring.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	period := time.Duration(float64(time.Second) / w.cfg.Sim.RenderVsyncHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if _, err := w.Advance(elapsed); err != nil {
				return err
			}
			if w.State() == Stopped {
				return w.LastErr()
			}
		}
	}
}
