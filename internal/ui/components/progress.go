package components

import (
	"strings"

	"github.com/abhisek/studycoach/internal/ui/theme"
)

// ProgressBar renders quiz completion as a fixed-width bar.
type ProgressBar struct {
	Width int
}

// NewProgressBar creates a progress bar of the given width.
func NewProgressBar(width int) ProgressBar {
	if width <= 0 {
		width = 20
	}
	return ProgressBar{Width: width}
}

// View renders the bar for done out of total steps.
func (p ProgressBar) View(done, total int) string {
	if total <= 0 {
		return ""
	}
	filled := done * p.Width / total
	if filled > p.Width {
		filled = p.Width
	}

	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", p.Width-filled))
}
