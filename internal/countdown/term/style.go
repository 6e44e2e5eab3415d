package term

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/good-yellow-bee/countdown/internal/countdown"
)

// Style maps a presentation and frame to a Lip Gloss style. Pixel paddings
// are scaled down to terminal cells.
func Style(p countdown.Presentation, f countdown.Frame, phase bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Padding(p.Size.PadY/8, p.Size.PadX/4)

	if p.Size.FontSize == "20px" {
		style = style.Bold(true)
	}
	if p.Background != "" {
		style = style.
			Background(lipgloss.Color(p.Background)).
			Foreground(lipgloss.Color(p.Foreground))
	}

	if f.Urgent {
		switch f.Animation.Name {
		case "pulse":
			if phase {
				style = style.Faint(true)
			} else {
				style = style.Bold(true)
			}
		case "blink":
			style = style.Blink(true)
		}
	}
	return style
}
