package pneumo

// Line connects two gas volumes through a valve. Flow is directional,
// From (upstream) to To (downstream). Length and Bore describe the
// physical tube for geometric receiver-volume accounting.
type Line struct {
	Name   string
	Valve  Valve
	From   *GasState
	To     *GasState
	Length float64 // m
	Bore   float64 // m^2, cross-sectional area

	// Receiver marks lines that are gated by the master isolation valve.
	Receiver bool

	// LastFlow is the mass flow rate computed on the most recent
	// evaluation, kg/s. Diagnostic only.
	LastFlow float64
}

// TubeVolume returns the internal volume of the connecting line.
func (l *Line) TubeVolume() float64 {
	return l.Length * l.Bore
}

// Network owns an ordered list of lines. Evaluation order is the slice
// order, fixed at construction, so valve transitions are deterministic
// across steps.
type Network struct {
	Lines []*Line
}

func NewNetwork(lines ...*Line) *Network {
	return &Network{Lines: lines}
}

// Evaluate advances every valve state once, then applies the resulting
// mass transfers over dt. Transfers are capped at the upstream mass so
// a large dt cannot drive a chamber negative through normal flow; a cap
// violation from elsewhere still surfaces as ErrNegativeMass.
func (n *Network) Evaluate(dt float64, isolationOpen bool) error {
	for _, l := range n.Lines {
		if l.Receiver && !isolationOpen {
			l.LastFlow = 0
			continue
		}

		l.Valve.Update(l.From.Pressure, l.To.Pressure)
		mdot := l.Valve.Flow(l.From.Pressure, l.To.Pressure, l.From.Density())
		l.LastFlow = mdot
		if mdot <= 0 {
			continue
		}

		dm := mdot * dt
		if dm > l.From.Mass {
			dm = l.From.Mass
		}

		tUp := l.From.Temperature
		if err := l.From.AddMass(-dm, tUp); err != nil {
			return err
		}
		if err := l.To.AddMass(dm, tUp); err != nil {
			return err
		}
	}
	return nil
}

// ValveStates reports name -> open for every line, in evaluation order.
func (n *Network) ValveStates() []ValveStatus {
	out := make([]ValveStatus, len(n.Lines))
	for i, l := range n.Lines {
		out[i] = ValveStatus{
			Name:     l.Name,
			Open:     l.Valve.IsOpen(),
			MassFlow: l.LastFlow,
		}
	}
	return out
}

// ValveStatus is the per-valve slice of a snapshot.
type ValveStatus struct {
	Name     string
	Open     bool
	MassFlow float64 // kg/s
}
