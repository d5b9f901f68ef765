package viz

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/quakesim/internal/sim"
)

const (
	canvasCols = 72
	canvasRows = 12
	graphWidth = 40
	minZoom    = 0.05
	maxZoom    = 20.0
)

// TickMsg drives one live model. Gen names the model that scheduled it,
// so ticks still in flight for a discarded model are dropped.
type TickMsg struct {
	Gen  uint64
	Time time.Time
}

var generations atomic.Uint64

func tick(gen uint64) tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg{Gen: gen, Time: t} })
}

// Model is the running view of one simulator. The world is mapped onto
// the canvas as dot = (x - camX) * zoom.
type Model struct {
	sim      *sim.Simulator
	gen      uint64
	name     string
	canvas   *Canvas
	theme    Theme
	camX     float64
	zoom     float64
	follow   bool
	lastTick time.Time
	showHelp bool
	back     bool
}

func NewModel(s *sim.Simulator, name string) Model {
	return Model{
		sim:    s,
		gen:    generations.Add(1),
		name:   name,
		canvas: NewCanvas(canvasCols, canvasRows),
		theme:  ThemeFault,
		zoom:   1,
		follow: true,
	}
}

func (m Model) Init() tea.Cmd { return tick(m.gen) }

// Update handles input events and advances the simulator by the wall
// time between ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.sim.TogglePause()
		case "r":
			m.reset()
		case "b":
			m.back = true
		case "f":
			m.follow = !m.follow
		case "left", "h":
			m.pan(-1)
		case "right", "l":
			m.pan(1)
		case "+", "=":
			m.zoom = math.Min(m.zoom*1.25, maxZoom)
		case "-", "_":
			m.zoom = math.Max(m.zoom/1.25, minZoom)
		case "t":
			m.theme = NextTheme(m.theme)
		case "esc":
			m.sim.ClearSelection()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.selectAt(msg.X, msg.Y)
		}
	case TickMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		now := msg.Time
		if !m.lastTick.IsZero() {
			m.sim.Advance(now.Sub(m.lastTick))
			m.sim.SampleEnergy()
		}
		m.lastTick = now
		if m.follow {
			m.track()
		}
		return m, tick(m.gen)
	}
	return m, nil
}

// Back reports whether the user asked to return to the start screen.
func (m Model) Back() bool { return m.back }

func (m *Model) reset() {
	if err := m.sim.Reset(); err != nil {
		return
	}
	m.camX = 0
}

func (m *Model) visibleWidth() float64 {
	w, _ := m.canvas.Dots()
	return float64(w) / m.zoom
}

func (m *Model) pan(dir float64) {
	m.follow = false
	m.camX += dir * m.visibleWidth() / 10
}

// track keeps the furthest position reached inside the right fifth of
// the view.
func (m *Model) track() {
	c := m.sim.Chain()
	if c == nil {
		return
	}
	right := c.MaxX() + c.Params().BlockWidth
	if vis := m.visibleWidth(); right > m.camX+0.8*vis {
		m.camX = right - 0.8*vis
	}
}

// worldX converts a screen cell to the world coordinate under its centre.
func (m *Model) worldX(col int) float64 {
	return m.camX + (float64(2*col)+1)/m.zoom
}

func (m *Model) selectAt(x, y int) {
	col, row := x-canvasPadLeft, y-canvasPadTop
	if col < 0 || col >= m.canvas.Width || row < 0 || row >= m.canvas.Height {
		return
	}
	m.sim.SelectBlockAt(m.worldX(col))
}

func (m *Model) draw() {
	m.canvas.Clear()
	c := m.sim.Chain()
	if c == nil {
		return
	}
	_, h := m.canvas.Dots()
	ground := h - 1
	bw := c.Params().BlockWidth
	top := ground - max(2, min(int(bw*m.zoom), h/2))
	mid := (ground + top) / 2
	dot := func(x float64) int { return int(math.Round((x - m.camX) * m.zoom)) }

	w, _ := m.canvas.Dots()
	m.canvas.DrawLine(0, ground, w-1, ground)

	sel, hasSel := m.sim.Selected()
	for i, b := range c.Blocks() {
		x0, x1 := dot(b.X), dot(b.X+bw)
		m.canvas.Rect(x0, top, x1, ground, hasSel && sel.Index == b.Index)

		// anchor
		e := dot(b.E)
		m.canvas.DrawLine(e, 0, e, 2)
		m.canvas.DrawLine(x0+(x1-x0)/2, top, e, 2)

		if next := c.Next(&c.Blocks()[i]); next != nil {
			m.canvas.Spring(x1, dot(next.X), mid)
		}
	}
}

func (m Model) status() string {
	switch {
	case m.sim.Err() != nil:
		return statusError.Render("DIVERGED")
	case m.sim.Paused():
		return statusPaused.Render("PAUSED")
	default:
		return statusRunning.Render("RUNNING")
	}
}

func (m Model) plot(data []float64, caption string) string {
	if len(data) < 2 {
		return ""
	}
	chart := asciigraph.Plot(data,
		asciigraph.Height(4),
		asciigraph.Width(graphWidth),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(m.sim.MaxRecorded()),
		asciigraph.Caption(caption),
	)
	return lipgloss.NewStyle().Foreground(m.theme.Graph).Render(chart) + "\n\n"
}

// View renders the chain next to the stats panel.
func (m Model) View() string {
	m.draw()
	chainView := canvasStyle.Foreground(m.theme.Chain).Render(m.canvas.String())

	cfg := m.sim.Config()
	c := m.sim.Chain()

	var s strings.Builder
	s.WriteString(header(m.theme, strings.ToUpper(m.name)) + "  " + m.status() + "\n\n")
	if h := m.sim.Kinetic(); h != nil {
		s.WriteString(m.plot(h.Series(graphWidth), "kinetic"))
	}
	if h := m.sim.Potential(); h != nil {
		s.WriteString(m.plot(h.Series(graphWidth), "potential"))
	}
	s.WriteString(field("Blocks", fmt.Sprintf("%d", c.Len())))
	s.WriteString(field("Integrator", string(cfg.Integrator)))
	s.WriteString(field("Max x", fmt.Sprintf("%.3f", c.MaxX())))
	s.WriteString(field("Substeps", fmt.Sprintf("%d", m.sim.Substeps())))
	follow := "off"
	if m.follow {
		follow = "on"
	}
	s.WriteString(field("Follow", follow))

	if b, ok := m.sim.Selected(); ok {
		s.WriteString("\n" + header(m.theme, fmt.Sprintf("BLOCK %d", b.Index)) + "\n")
		s.WriteString(field("k_p", fmt.Sprintf("%.3f", b.KP)))
		s.WriteString(field("k_c", fmt.Sprintf("%.3f", b.KC)))
		s.WriteString(field("Kinetic", fmt.Sprintf("%.4f", b.V*b.V/2)))
		s.WriteString(field("Friction", fmt.Sprintf("%.3f", b.Friction)))
		s.WriteString(field("Friction d", fmt.Sprintf("%.3f", cfg.FrictionD)))
	}

	s.WriteString(helpStyle.Render(Separator(40)) + "\n")
	s.WriteString(keyHints("spc", "pause", "r", "reset", "b", "menu", "q", "quit") + "\n")
	s.WriteString(keyHints("f", "follow", "←→", "pan", "+-", "zoom", "?", "help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, chainView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  space/p  pause or resume
  r        rebuild the chain
  b        back to the start screen
  f        follow the furthest block
  ←/→      pan
  +/-      zoom
  t        cycle colors
  click    select a block, esc clears
  q        quit
`
