package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/network"
	"github.com/san-kum/powerlink/internal/scenario"
)

const (
	historyCapacity = 300
	sparkWidth      = 30
	maxLogLines     = 6
)

type TickMsg time.Time

// WatchModel steps a scenario on a timer and renders its state.
type WatchModel struct {
	sc       *scenario.Scenario
	nodes    []string
	history  [][]float64
	ceiling  float64
	selected int
	running  bool
	done     bool
	last     network.Snapshot
	log      []string
	interval time.Duration
}

// NewWatchModel wraps sc. interval is the wall-clock delay between major
// steps.
func NewWatchModel(sc *scenario.Scenario, interval time.Duration) WatchModel {
	nodes := sc.Network().Nodes()
	names := make([]string, 0, nodes.Len()-1)
	for i := 0; i < nodes.Len(); i++ {
		if !nodes.IsGround(i) {
			names = append(names, nodes.Name(i))
		}
	}
	ceiling := 0.0
	for _, src := range sc.Config().Sources {
		if src.Potential > ceiling {
			ceiling = src.Potential
		}
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return WatchModel{
		sc:       sc,
		nodes:    names,
		history:  make([][]float64, len(names)),
		ceiling:  ceiling,
		running:  true,
		interval: interval,
	}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m WatchModel) Init() tea.Cmd { return m.tick() }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "tab":
			if len(m.nodes) > 0 {
				m.selected = (m.selected + 1) % len(m.nodes)
			}
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *WatchModel) step() {
	if m.done {
		return
	}
	snap, err := m.sc.Step()
	m.last = snap
	for i := range m.history {
		if i < len(snap.Potentials) {
			m.history[i] = append(m.history[i], snap.Potentials[i])
			if len(m.history[i]) > historyCapacity {
				m.history[i] = m.history[i][1:]
			}
		}
	}
	for _, name := range snap.Tripped {
		m.addLog(fmt.Sprintf("t=%.2f %s tripped", snap.Time, name))
	}
	if err != nil {
		m.addLog(err.Error())
	}

	solver := m.sc.Config().Solver
	if snap.Time >= solver.Duration-solver.Dt/2 {
		m.done = true
		m.running = false
	}
}

func (m *WatchModel) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[1:]
	}
}

func (m WatchModel) View() string {
	var s strings.Builder

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.done:
		status = Subtle.Render("DONE")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.sc.Config().Name)) + "\n")
	s.WriteString(fmt.Sprintf("%s  t=%.2fs  minor steps %d\n\n", status, m.last.Time, m.last.MinorSteps))

	s.WriteString(Title.Render("Nodes") + "\n")
	for i, name := range m.nodes {
		v := 0.0
		if n := len(m.history[i]); n > 0 {
			v = m.history[i][n-1]
		}
		marker := "  "
		if i == m.selected {
			marker = "▸ "
		}
		s.WriteString(marker + MetricLabel.Render(name) + MetricValue.Render(fmt.Sprintf("%9.3f V ", v)) +
			Sparkline(m.history[i], m.ceiling, sparkWidth) + "\n")
	}

	s.WriteString("\n" + Title.Render("Links") + "\n")
	for _, l := range m.sc.Network().Links() {
		if line := linkStatus(l); line != "" {
			s.WriteString("  " + line + "\n")
		}
	}

	if len(m.nodes) > 0 && len(m.history[m.selected]) > 1 {
		graph := asciigraph.Plot(m.history[m.selected],
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption(m.nodes[m.selected]+" (V)"))
		s.WriteString("\n" + graph + "\n")
	}

	if len(m.log) > 0 {
		s.WriteString("\n" + Title.Render("Events") + "\n")
		for _, line := range m.log {
			s.WriteString("  " + Subtle.Render(line) + "\n")
		}
	}

	s.WriteString("\n" + KeyHint.Render("space pause · n step · tab node · q quit"))
	return Panel.Render(s.String())
}

func linkStatus(l gunns.Link) string {
	switch v := l.(type) {
	case *elect.Ips:
		source := "none"
		if a := v.ActiveSource(); a != gunns.InvalidSource {
			source = fmt.Sprintf("input %d", a)
		}
		return MetricLabel.Render(v.Name()) +
			Badge(fmt.Sprintf("%-10s", source), v.IsPowerSupplyOn()) +
			Subtle.Render(fmt.Sprintf(" %7.1f W", v.PowerDrawn()))
	case *elect.UserLoadSwitch:
		sw := v.Switch()
		state := "closed"
		switch {
		case sw.IsTripped():
			state = "tripped"
		case !sw.IsClosed():
			state = "open"
		}
		if v.IsLoadsOverrideActive() {
			state += "+override"
		}
		return MetricLabel.Render(v.Name()) +
			Badge(fmt.Sprintf("%-10s", state), sw.IsClosed() && !sw.IsTripped()) +
			Subtle.Render(fmt.Sprintf(" %7.3f A", v.Current()))
	case *elect.PowerBus:
		return MetricLabel.Render(v.Name()) +
			Badge(fmt.Sprintf("%-10s", "bus"), v.Voltage() > 0) +
			Subtle.Render(fmt.Sprintf(" %7.1f W", v.LoadPower()))
	case *elect.PotentialSource:
		return MetricLabel.Render(v.Name()) +
			Badge(fmt.Sprintf("%-10s", "source"), v.Potential() > 0) +
			Subtle.Render(fmt.Sprintf(" %7.3f A", v.Flux()))
	}
	return ""
}
