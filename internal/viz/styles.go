package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(48)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	keyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
)

// canvasPadLeft and canvasPadTop place the chain canvas on screen; mouse
// coordinates are translated with them.
const (
	canvasPadTop  = 1
	canvasPadLeft = 2
)

var canvasStyle = lipgloss.NewStyle().Padding(canvasPadTop, canvasPadLeft)

func header(t Theme, text string) string {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render(text)
}

func field(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

// keyHints renders "key desc" pairs on one line.
func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(hintStyle.Render("  "))
		}
		b.WriteString(keyStyle.Render(pairs[i]) + hintStyle.Render(" "+pairs[i+1]))
	}
	return b.String()
}

// Separator is a muted rule of the given width.
func Separator(width int) string {
	if width < 7 {
		return hintStyle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return hintStyle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
