package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the live view.
type Theme struct {
	Name   string
	Chain  lipgloss.Color // blocks, springs and ground
	Accent lipgloss.Color // headers and the selected block panel
	Graph  lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemeFault = Theme{
		Name:   "fault",
		Chain:  lipgloss.Color("#e0c097"),
		Accent: lipgloss.Color("#ff6b35"),
		Graph:  lipgloss.Color("#ffb347"),
		Muted:  lipgloss.Color("#7a6a5a"),
	}

	ThemeRetroGreen = Theme{
		Name:   "retro",
		Chain:  lipgloss.Color("#00ff00"),
		Accent: lipgloss.Color("#88ff88"),
		Graph:  lipgloss.Color("#00cc00"),
		Muted:  lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Chain:  lipgloss.Color("#e0f0ff"),
		Accent: lipgloss.Color("#ffd700"),
		Graph:  lipgloss.Color("#00a8cc"),
		Muted:  lipgloss.Color("#4488aa"),
	}

	Themes = []Theme{ThemeFault, ThemeRetroGreen, ThemeOcean}
)

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
