// Package tui is the interactive terminal front end, driving a worker
// in real time and rendering its snapshot stream.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/worker"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const historyLen = 200

// Model is the bubbletea model wrapping a simulation worker. The
// worker is driven from the update loop, never from a second
// goroutine.
type Model struct {
	w *worker.Worker

	heave []float64
	last  *worker.StateSnapshot

	lastFrame time.Time
	fps       float64
	err       error

	width  int
	height int
}

func NewLive(w *worker.Worker) *Model {
	return &Model{
		w:      w,
		heave:  make([]float64, 0, historyLen),
		width:  100,
		height: 30,
	}
}

// Err reports what terminated the session, if anything.
func (m *Model) Err() error { return m.err }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd {
	if err := m.w.Start(); err != nil {
		m.err = err
		return tea.Quit
	}
	m.lastFrame = time.Now()
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		now := time.Now()
		elapsed := now.Sub(m.lastFrame).Seconds()
		if elapsed > 0 {
			m.fps = 1.0 / elapsed
		}
		m.lastFrame = now

		if _, err := m.w.Advance(elapsed); err != nil {
			m.err = err
			return m, tea.Quit
		}
		if s := m.w.Ring().Latest(); s != nil {
			m.last = s
			m.heave = append(m.heave, s.Body.Heave*1000)
			if len(m.heave) > historyLen {
				m.heave = m.heave[1:]
			}
		}
		if m.w.State() == worker.Stopped {
			m.err = m.w.LastErr()
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.w.Stop()
		return m, tea.Quit
	case " ":
		if m.w.State() == worker.Running {
			_ = m.w.Pause()
		} else if m.w.State() == worker.Paused {
			_ = m.w.Resume()
		}
	case "i":
		_ = m.w.Apply(worker.IsolationUpdate{Open: !m.w.IsolationOpen()})
	case "t":
		mode := "adiabatic"
		if m.w.ThermoMode() == "adiabatic" {
			mode = "isothermal"
		}
		_ = m.w.Apply(worker.ThermoUpdate{Mode: mode})
	case "+", "=":
		cfg := m.w.RoadConfig()
		cfg.Amplitude *= 1.25
		_ = m.w.Apply(worker.RoadUpdate{Config: cfg})
	case "-":
		cfg := m.w.RoadConfig()
		cfg.Amplitude *= 0.8
		_ = m.w.Apply(worker.RoadUpdate{Config: cfg})
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	state := m.w.State().String()
	stateStyle := green
	if state == "paused" {
		stateStyle = yellow
	} else if state == "stopped" {
		stateStyle = red
	}
	b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		cyan.Render("pneumostab"),
		stateStyle.Render(state),
		dim.Render(fmt.Sprintf("%.0f fps", m.fps))))

	if m.last == nil {
		b.WriteString(dim.Render("  waiting for first snapshot...\n"))
		return b.String()
	}
	s := m.last

	b.WriteString(dim.Render(fmt.Sprintf("  t=%.2fs  step=%d  pending=%d\n\n", s.Time, s.Step, s.Pending)))

	if len(m.heave) > 2 {
		graph := asciigraph.Plot(m.heave,
			asciigraph.Height(8),
			asciigraph.Width(min(m.width-12, 90)),
			asciigraph.Caption("heave (mm)"),
		)
		b.WriteString(graph + "\n\n")
	}

	b.WriteString(white.Render(fmt.Sprintf(
		"  heave %+7.2f mm   roll %+6.3f deg   pitch %+6.3f deg\n",
		s.Body.Heave*1000,
		s.Body.Roll*180/math.Pi,
		s.Body.Pitch*180/math.Pi)))
	b.WriteString(dim.Render(fmt.Sprintf(
		"  receiver %.1f kPa  isolation %s  thermo %s\n\n",
		s.Receiver.Pressure/1000, onOff(m.w.IsolationOpen()), m.w.ThermoMode())))

	for _, c := range s.Corners {
		bar := pressureBar(c.Head.Pressure, 40)
		flag := "  "
		if c.Interference > 0 {
			flag = red.Render("!!")
		} else if c.Clamped {
			flag = yellow.Render(" *")
		}
		b.WriteString(fmt.Sprintf("  %s %s %7.1f kPa  stroke %5.1f mm  F %7.0f N %s\n",
			cyan.Render(strings.ToUpper(c.Name)), bar,
			c.Head.Pressure/1000, c.Stroke*1000, c.Force, flag))
	}

	b.WriteString("\n  ")
	for _, v := range s.Valves {
		mark := dim.Render("." + v.Name)
		if v.Open {
			mark = green.Render("+" + v.Name)
		}
		b.WriteString(mark + " ")
	}
	b.WriteString("\n\n")
	b.WriteString(dim.Render("  space pause  i isolation  t thermo  +/- road  q quit\n"))

	return b.String()
}

func pressureBar(p float64, width int) string {
	// Scale between atmospheric and the default relief setpoint.
	frac := (p - pneumo.PAtm) / (pneumo.DefaultReliefSet - pneumo.PAtm)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	fill := int(frac * float64(width))
	return "[" + strings.Repeat("#", fill) + strings.Repeat(" ", width-fill) + "]"
}

func onOff(b bool) string {
	if b {
		return "open"
	}
	return "closed"
}
