// Package present renders client state for the terminal.
package present

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorDanger  = lipgloss.Color("#E53935")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#8A94A6")
	colorBorder  = lipgloss.Color("#2A3850")
)

type tone int

const (
	toneMuted tone = iota
	toneSuccess
	toneWarning
	toneDanger
	toneInfo
)

// Printer renders to a single writer using a color profile detected for it.
type Printer struct {
	w      io.Writer
	r      *lipgloss.Renderer
	header lipgloss.Style
	cell   lipgloss.Style
	border lipgloss.Style
	banner lipgloss.Style
	hint   lipgloss.Style
	badges map[tone]lipgloss.Style
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	badge := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Foreground(c).Bold(true)
	}
	return &Printer{
		w:      w,
		r:      r,
		header: r.NewStyle().Bold(true).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		border: r.NewStyle().Foreground(colorBorder),
		banner: r.NewStyle().Foreground(colorDanger).Bold(true),
		hint:   r.NewStyle().Foreground(colorMuted).Italic(true),
		badges: map[tone]lipgloss.Style{
			toneMuted:   badge(colorMuted),
			toneSuccess: badge(colorSuccess),
			toneWarning: badge(colorWarning),
			toneDanger:  badge(colorDanger),
			toneInfo:    badge(colorInfo),
		},
	}
}
