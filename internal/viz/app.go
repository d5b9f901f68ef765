package viz

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/quakesim/internal/config"
	"github.com/san-kum/quakesim/internal/sim"
)

const (
	stateMenu = iota
	stateSim
)

// entry is one startable configuration on the start screen.
type entry struct {
	name string
	cfg  *config.Config
}

// App is the start screen plus the live view it launches.
type App struct {
	state   int
	cursor  int
	entries []entry
	logger  *slog.Logger
	live    Model
	err     error
}

// NewApp lists custom first, when given, followed by every preset.
func NewApp(custom *config.Config, logger *slog.Logger) *App {
	var entries []entry
	if custom != nil {
		entries = append(entries, entry{name: "custom", cfg: custom})
	}
	for _, name := range config.ListPresets() {
		entries = append(entries, entry{name: name, cfg: config.GetPreset(name)})
	}
	return &App{state: stateMenu, entries: entries, logger: logger}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		if a.live.Back() {
			// the simulator is dropped; starting again builds a fresh chain
			a.state, a.live = stateMenu, Model{}
			return a, nil
		}
		return a, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	default:
		return a, a.start()
	}
	return a, nil
}

func (a *App) start() tea.Cmd {
	if len(a.entries) == 0 {
		return nil
	}
	e := a.entries[a.cursor]
	s, err := sim.New(e.cfg, sim.WithLogger(a.logger))
	if err != nil {
		a.err = fmt.Errorf("start %s: %w", e.name, err)
		return nil
	}
	a.err = nil
	a.live = NewModel(s, e.name)
	a.state = stateSim
	return a.live.Init()
}

func (a App) View() string {
	if a.state == stateSim {
		return a.live.View()
	}

	var b strings.Builder
	b.WriteString("\n\n    " + header(ThemeFault, "QUAKESIM") + "\n")
	b.WriteString("    " + hintStyle.Render("spring-block earthquake model") + "\n")
	b.WriteString("    " + Separator(28) + "\n\n")
	for i, e := range a.entries {
		desc := fmt.Sprintf("%d blocks, %s, %s", e.cfg.Blocks, e.cfg.Integrator, e.cfg.Distribution)
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", keyStyle.Render("▸"), valueStyle.Bold(true).Render(fmt.Sprintf("%-10s", e.name)), desc))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", hintStyle.Render(fmt.Sprintf("%-10s", e.name)), hintStyle.Render(desc)))
		}
	}
	if a.err != nil {
		b.WriteString("\n    " + statusError.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "any key", "start", "q", "quit") + "\n")
	return b.String()
}

// RunInteractive runs the start screen and live view until the user quits.
func RunInteractive(custom *config.Config, logger *slog.Logger) error {
	_, err := tea.NewProgram(NewApp(custom, logger), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
