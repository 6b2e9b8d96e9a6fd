package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/numtide/notes/note"
)

const infoPrefix = "ℹ️ "

// Printer renders notes for the console.
type Printer struct {
	w       io.Writer
	noColor bool

	marker   lipgloss.Style
	location lipgloss.Style
}

// NewPrinter creates a Printer writing to w. Colors are only emitted when w is a terminal which supports them.
func NewPrinter(w io.Writer, noColor bool) *Printer {
	renderer := lipgloss.NewRenderer(w)

	return &Printer{
		w:        w,
		noColor:  noColor,
		marker:   renderer.NewStyle().Foreground(lipgloss.Color("3")),
		location: renderer.NewStyle().Foreground(lipgloss.Color("7")),
	}
}

// Print writes n, followed by where it was found and a blank line.
func (p *Printer) Print(relPath string, n note.Note) error {
	location := fmt.Sprintf("%s:%d", relPath, n.Line)

	var err error
	if p.noColor {
		_, err = fmt.Fprintf(p.w, "%s %s\n%s\n\n", n.Marker, n.Text, location)
	} else {
		_, err = fmt.Fprintf(p.w, "%s %s\n%s\n\n",
			p.marker.Render("["+n.Marker+"]"), n.Text, p.location.Render(location))
	}

	if err != nil {
		return fmt.Errorf("failed to print note: %w", err)
	}

	return nil
}

// Summary writes the number of notes found, and how many of those were not printed.
// With colors enabled the line is marked as information.
func (p *Printer) Summary(found int, ignored int) error {
	line := fmt.Sprintf("Found %d notes", found)
	if !p.noColor {
		line = infoPrefix + line
	}

	if ignored > 0 {
		line += fmt.Sprintf(" (%d ignored)", ignored)
	}

	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	return nil
}
