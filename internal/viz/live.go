package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/sepode/internal/ode"
	"github.com/san-kum/sepode/internal/sim"
)

const (
	revealInterval = 300 * time.Millisecond
	maxLivePoints  = 4097
)

type TickMsg time.Time

// LiveModel reveals a comparison run one grid point at a time and lets the
// user refine or coarsen the step.
type LiveModel struct {
	simulator *sim.Simulator
	problem   ode.Problem
	result    *sim.Result
	err       error
	revealed  int
	running   bool
	width     int
	height    int
	samples   int
}

func NewLiveModel(s *sim.Simulator, p ode.Problem, width, height, samples int) LiveModel {
	m := LiveModel{
		simulator: s,
		problem:   p,
		running:   true,
		width:     width,
		height:    height,
		samples:   samples,
	}
	m.recompute()
	return m
}

func (m *LiveModel) recompute() {
	m.result, m.err = m.simulator.Run(context.Background(), m.problem)
	m.revealed = 1
}

func (m LiveModel) Problem() ode.Problem { return m.problem }
func (m LiveModel) Result() *sim.Result  { return m.result }
func (m LiveModel) Revealed() int        { return m.revealed }
func (m LiveModel) Running() bool        { return m.running }

func tick() tea.Cmd {
	return tea.Tick(revealInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.revealed = 1
			m.running = true
		case "+", "=":
			if m.pointsFor(m.problem.H/2) <= maxLivePoints {
				m.problem = m.problem.WithStep(m.problem.H / 2)
				m.recompute()
			}
		case "-", "_":
			if m.problem.H*2 <= m.problem.TEnd-m.problem.TStart {
				m.problem = m.problem.WithStep(m.problem.H * 2)
				m.recompute()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		m.height = msg.Height / 4
		if m.height < 4 {
			m.height = 4
		}
	case TickMsg:
		if m.running && m.result != nil && m.revealed < m.result.Report.Len() {
			m.revealed++
		}
		return m, tick()
	}
	return m, nil
}

func (m LiveModel) pointsFor(h float64) int {
	return int((m.problem.TEnd-m.problem.TStart)/h+0.5) + 1
}

func (m LiveModel) View() string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("sepode live"))
	sb.WriteString("  ")
	sb.WriteString(Subtle.Render(m.problem.String()))
	sb.WriteString("\n\n")

	if m.err != nil {
		sb.WriteString(ErrorStyle.Render(m.err.Error()))
		sb.WriteString("\n")
		sb.WriteString(KeyHint.Render("q quit"))
		return sb.String()
	}

	r := m.result.Report
	shown := m.revealed
	if shown > r.Len() {
		shown = r.Len()
	}

	const maxRows = 12
	start := 0
	if shown > maxRows {
		start = shown - maxRows
	}
	window := *r
	window.Rows = r.Rows[start:shown]
	window.MaxAbsIndex = r.MaxAbsIndex - start

	left := PanelStyle.Render(RenderTable(&window, -1))
	status := "running"
	if !m.running {
		status = "paused"
	}
	right := PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("points %d/%d  (%s)", shown, r.Len(), status),
		"",
		RenderSummary(r),
	))
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	sb.WriteString("\n")

	if shown >= 2 {
		sb.WriteString(PlotComparison(m.problem, m.result.Approx[:shown], m.width, m.height, m.samples))
		sb.WriteString("\n")
	}

	sb.WriteString(KeyHint.Render("space pause | + halve h | - double h | r restart | q quit"))
	return sb.String()
}
