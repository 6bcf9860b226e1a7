package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/nbodyx/internal/experiment"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailLength     = 120
	maxListed       = 6
)

type TickMsg time.Time

type point struct{ x, y int }

// Model advances an experiment a few steps per frame and draws it.
type Model struct {
	ctx           context.Context
	exp           *experiment.Experiment
	stepsPerFrame int
	running       bool
	done          bool
	err           error
	theme         Theme
	styles        styles
	canvas        *Canvas
	scale         float64
	trails        [][]point
	massHistory   []float64
}

// NewModel prepares a live view of exp, setting it up if needed.
func NewModel(ctx context.Context, exp *experiment.Experiment) (Model, error) {
	if exp.Simulation() == nil {
		if err := exp.Setup(); err != nil {
			return Model{}, err
		}
	}

	s := exp.Simulation()
	extent := 0.0
	for _, p := range s.Particles {
		extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	if extent == 0 {
		extent = 1
	}

	theme := Themes[0]
	return Model{
		ctx:           ctx,
		exp:           exp,
		stepsPerFrame: 10,
		running:       true,
		theme:         theme,
		styles:        newStyles(theme),
		canvas:        NewCanvas(width, height),
		scale:         1.25 * extent,
		trails:        make([][]point, len(s.Particles)),
		massHistory:   make([]float64, 0, historyCapacity),
	}, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.stepsPerFrame *= 2
		case "-", "_":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		case "t":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		}
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.advance()
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	s := m.exp.Simulation()
	remaining := m.exp.Config().Duration - s.T
	if remaining <= 1e-6*math.Abs(s.Dt) {
		m.done = true
		return
	}

	dt := math.Abs(s.Dt) * float64(m.stepsPerFrame)
	if dt > remaining {
		dt = remaining
	}
	if err := m.exp.Advance(m.ctx, dt); err != nil {
		m.err = err
		m.running = false
		return
	}

	m.massHistory = append(m.massHistory, s.Particles[m.tracked()].M)
	if len(m.massHistory) > historyCapacity {
		m.massHistory = m.massHistory[1:]
	}
}

// tracked is the particle whose mass is plotted.
func (m *Model) tracked() int {
	for i, pc := range m.exp.Config().Particles {
		if len(pc.Params) > 0 {
			return i
		}
	}
	return 0
}

// project maps simulation x-y coordinates to canvas dots, y up.
func (m *Model) project(x, y float64) point {
	cw, ch := m.canvas.Width*2, m.canvas.Height*4
	return point{
		x: cw/2 + int(x/m.scale*float64(cw/2)),
		y: ch/2 - int(y/m.scale*float64(ch/2)),
	}
}

func (m *Model) onCanvas(p point) bool {
	return p.x >= 0 && p.y >= 0 && p.x < m.canvas.Width*2 && p.y < m.canvas.Height*4
}

func (m *Model) draw() {
	s := m.exp.Simulation()
	m.canvas.Clear()

	for i, p := range s.Particles {
		pt := m.project(p.X, p.Y)
		m.trails[i] = append(m.trails[i], pt)
		if len(m.trails[i]) > trailLength {
			m.trails[i] = m.trails[i][1:]
		}
		trail := m.trails[i]
		for j := 1; j < len(trail); j++ {
			if !m.onCanvas(trail[j-1]) || !m.onCanvas(trail[j]) {
				continue
			}
			m.canvas.DrawLine(trail[j-1].x, trail[j-1].y, trail[j].x, trail[j].y)
		}
		m.canvas.Dot(pt.x, pt.y)
	}
}

func (m Model) View() string {
	s := m.exp.Simulation()
	cfg := m.exp.Config()
	st := m.styles

	var b strings.Builder
	b.WriteString(st.header.Render(strings.ToUpper(cfg.Name)) + "\n")

	switch {
	case m.err != nil:
		b.WriteString(st.failed.Render("FAILED") + "\n" + st.value.Render(m.err.Error()) + "\n\n")
	case m.done:
		b.WriteString(st.running.Render("DONE") + "\n\n")
	case m.running:
		b.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		b.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	b.WriteString(ProgressBar(s.T/cfg.Duration, 30) + "\n\n")
	b.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%.4g / %.4g", s.T, cfg.Duration)) + "\n")
	b.WriteString(st.label.Render("Steps") + st.value.Render(fmt.Sprintf("%d (x%d/frame)", s.Steps(), m.stepsPerFrame)) + "\n")
	b.WriteString(st.label.Render("Integrator") + st.value.Render(fmt.Sprintf("%s (%s)", cfg.Integrator, s.Stepping())) + "\n")

	b.WriteString("\nMASSES\n")
	for i, p := range s.Particles {
		if i == maxListed {
			b.WriteString(st.label.Render(fmt.Sprintf("  +%d more", len(s.Particles)-maxListed)) + "\n")
			break
		}
		b.WriteString(st.label.Render(fmt.Sprintf("  [%d]", i)) + st.value.Render(fmt.Sprintf("%.8g", p.M)) + "\n")
	}

	if lc := cfg.OrbitLog; lc.Particle != lc.Primary {
		if o, err := s.Orbit(lc.Particle, lc.Primary); err == nil {
			b.WriteString("\nORBIT\n")
			b.WriteString(st.label.Render("  a") + st.value.Render(fmt.Sprintf("%.6g", o.A)) + "\n")
			b.WriteString(st.label.Render("  e") + st.value.Render(fmt.Sprintf("%.6g", o.E)) + "\n")
		}
	}

	b.WriteString("\nOPERATORS\n")
	if steps := m.exp.Extras().Steps(); len(steps) > 0 {
		for _, step := range steps {
			b.WriteString(st.label.Render("  "+step.Timing.String()) + st.value.Render(fmt.Sprintf("%s x%.3g", step.Name, step.Fraction)) + "\n")
		}
	} else {
		b.WriteString(st.label.Render("  (none)") + "\n")
	}

	if len(m.massHistory) > 1 {
		chart := asciigraph.Plot(m.massHistory, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption(fmt.Sprintf("mass [%d]", m.tracked())))
		b.WriteString(st.graph.Render(chart) + "\n")
	}

	b.WriteString(st.help.Render("SP:Pause +/-:Speed T:Theme Q:Quit"))

	canvasView := st.canvas.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(b.String()))
}

// Run shows the live view until the user quits.
func Run(ctx context.Context, exp *experiment.Experiment) error {
	m, err := NewModel(ctx, exp)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
