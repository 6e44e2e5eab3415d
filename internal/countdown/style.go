package countdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/good-yellow-bee/countdown/internal/models"
)

// SizePreset is the font size and padding for one size setting.
type SizePreset struct {
	FontSize string
	Padding  string
	// Vertical and horizontal padding in pixels.
	PadY, PadX int
}

var sizePresets = map[models.Size]SizePreset{
	models.SizeSmall:  {FontSize: "14px", Padding: "8px 12px", PadY: 8, PadX: 12},
	models.SizeMedium: {FontSize: "16px", Padding: "10px 14px", PadY: 10, PadX: 14},
	models.SizeLarge:  {FontSize: "20px", Padding: "14px 20px", PadY: 14, PadX: 20},
}

// PresetFor returns the preset of size. Unknown sizes fall back to medium.
func PresetFor(size models.Size) SizePreset {
	if p, ok := sizePresets[size]; ok {
		return p
	}
	return sizePresets[models.SizeMedium]
}

// Stacking order shared by both placements.
const ZIndex = 999

// Foreground colors chosen by Contrast.
const (
	DarkForeground  = "#000"
	LightForeground = "#fff"
)

// Brightness returns the perceived brightness (0-255) of an RGB color.
func Brightness(r, g, b uint8) int {
	return (int(r)*299 + int(g)*587 + int(b)*114) / 1000
}

// Contrast returns the text color readable on the background hex color.
func Contrast(hex string) (string, error) {
	r, g, b, err := models.ParseHexColor(hex)
	if err != nil {
		return "", err
	}
	if Brightness(r, g, b) > 128 {
		return DarkForeground, nil
	}
	return LightForeground, nil
}

// Animation is the continuous effect applied while urgent.
type Animation struct {
	Name   string
	Period time.Duration
}

// None reports whether no animation is applied.
func (a Animation) None() bool {
	return a.Name == ""
}

// CSS renders the animation as a CSS shorthand value, e.g. "pulse 1s infinite".
func (a Animation) CSS() string {
	if a.None() {
		return "none"
	}
	return fmt.Sprintf("%s %gs infinite", a.Name, a.Period.Seconds())
}

// AnimationFor maps an urgency setting to its animation.
func AnimationFor(u models.Urgency) Animation {
	switch u {
	case models.UrgencyPulse:
		return Animation{Name: "pulse", Period: time.Second}
	case models.UrgencyBlink:
		return Animation{Name: "blink", Period: 500 * time.Millisecond}
	}
	return Animation{}
}

// Presentation is the static styling of a widget, computed once at load.
type Presentation struct {
	Size     SizePreset
	Position models.Position
	// Placement is the CSS position mode: sticky for top, fixed for bottom.
	Placement string
	ZIndex    int
	// Background and Foreground are empty when the timer has no usable color.
	Background string
	Foreground string
	Label      string
	Animation  Animation
}

// NewPresentation derives the presentation of a timer payload.
func NewPresentation(t models.PublicTimer) Presentation {
	p := Presentation{
		Size:      PresetFor(t.Size),
		Position:  models.PositionTop,
		Placement: "sticky",
		ZIndex:    ZIndex,
		Animation: AnimationFor(t.Urgency),
	}
	if t.Position == models.PositionBottom {
		p.Position = models.PositionBottom
		p.Placement = "fixed"
	}
	if fg, err := Contrast(t.Color); err == nil {
		p.Background = t.Color
		p.Foreground = fg
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		p.Label = desc + " - Ends in: "
	}
	return p
}

// Style renders the presentation as an inline CSS declaration list.
func (p Presentation) Style() string {
	var b strings.Builder
	fmt.Fprintf(&b, "position: %s; %s: 0; left: 0; right: 0; z-index: %d; ", p.Placement, p.Position, p.ZIndex)
	fmt.Fprintf(&b, "font-size: %s; padding: %s; text-align: center;", p.Size.FontSize, p.Size.Padding)
	if p.Background != "" {
		fmt.Fprintf(&b, " background-color: %s; color: %s;", p.Background, p.Foreground)
	}
	return b.String()
}
