package moderation

import "strings"

// Color is a hex color for rendering a moderation label.
type Color string

const (
	ColorRed   Color = "#DC2626"
	ColorGreen Color = "#16A34A"
	ColorAmber Color = "#D97706"
)

func LabelColor(label string) Color {
	switch {
	case strings.Contains(label, "AI"):
		return ColorRed
	case strings.Contains(label, "Temiz"):
		return ColorGreen
	default:
		return ColorAmber
	}
}
