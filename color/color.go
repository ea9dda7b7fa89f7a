// Package color is the mediaroll terminal palette.
//
// Base colors are ANSI indexes so they follow the user's terminal theme.
// Kind accents are fixed hex values and are what ties a line of output to
// video or image at a glance.
package color

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mediaroll/mediaroll/media"
)

var (
	Black  = lipgloss.Color("0")
	Red    = lipgloss.Color("1")
	Green  = lipgloss.Color("2")
	Yellow = lipgloss.Color("3")
	Blue   = lipgloss.Color("4")
	Purple = lipgloss.Color("5")
	Cyan   = lipgloss.Color("6")

	HiRed    = lipgloss.Color("9")
	HiPurple = lipgloss.Color("13")
)

// Kind accents.
var (
	VideoAccent = lipgloss.Color("#ff6b6b")
	ImageAccent = lipgloss.Color("#4ecdc4")
)

// ForKind returns the accent used when printing media of kind.
func ForKind(kind media.Kind) lipgloss.Color {
	if kind == media.Image {
		return ImageAccent
	}
	return VideoAccent
}
