package worker

import (
	"fmt"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
)

// Update is a typed parameter change applied between physics steps.
// Updates are validated at enqueue time so a malformed message never
// reaches the simulation loop.
type Update interface {
	Validate() error
	apply(w *Worker) error
}

// RoadUpdate swaps the excitation profile.
type RoadUpdate struct {
	Config road.Config
}

func (u RoadUpdate) Validate() error { return u.Config.Validate() }

func (u RoadUpdate) apply(w *Worker) error {
	return w.excite.SetConfig(u.Config)
}

// ThermoUpdate switches the gas process model.
type ThermoUpdate struct {
	Mode string
}

func (u ThermoUpdate) Validate() error {
	_, err := pneumo.ParseThermoMode(u.Mode)
	return err
}

func (u ThermoUpdate) apply(w *Worker) error {
	m, err := pneumo.ParseThermoMode(u.Mode)
	if err != nil {
		return err
	}
	w.pneu.SetThermoMode(m)
	return nil
}

// ValveUpdate retunes the check valve hysteresis band and the relief
// setpoint. A zero field leaves that parameter unchanged.
type ValveUpdate struct {
	Cracking       float64
	Reseat         float64
	ReliefSetpoint float64
}

func (u ValveUpdate) Validate() error {
	if (u.Cracking == 0) != (u.Reseat == 0) {
		return fmt.Errorf("%w: cracking and reseat must be set together", dynamo.ErrConfigInvalid)
	}
	if u.Cracking != 0 && u.Reseat >= u.Cracking {
		return fmt.Errorf("%w: reseat %.3g must be below cracking %.3g",
			dynamo.ErrConfigInvalid, u.Reseat, u.Cracking)
	}
	if u.ReliefSetpoint < 0 {
		return fmt.Errorf("%w: relief setpoint %.3g", dynamo.ErrConfigInvalid, u.ReliefSetpoint)
	}
	return nil
}

func (u ValveUpdate) apply(w *Worker) error {
	if u.Cracking != 0 {
		if err := w.pneu.SetValveThresholds(u.Cracking, u.Reseat); err != nil {
			return err
		}
	}
	if u.ReliefSetpoint != 0 {
		return w.pneu.SetReliefSetpoint(u.ReliefSetpoint)
	}
	return nil
}

// ReceiverUpdate resizes the receiver vessel.
type ReceiverUpdate struct {
	Volume float64
}

func (u ReceiverUpdate) Validate() error {
	if u.Volume <= 0 {
		return fmt.Errorf("%w: receiver volume %.3g", dynamo.ErrConfigInvalid, u.Volume)
	}
	return nil
}

func (u ReceiverUpdate) apply(w *Worker) error {
	return w.pneu.SetReceiverVolume(u.Volume)
}

// IsolationUpdate opens or closes the master receiver isolation.
type IsolationUpdate struct {
	Open bool
}

func (u IsolationUpdate) Validate() error { return nil }

func (u IsolationUpdate) apply(w *Worker) error {
	w.pneu.SetIsolationOpen(u.Open)
	return nil
}
