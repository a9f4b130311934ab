package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"qllc/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	codeColor    = color.New(color.Faint)
	locColor     = color.New(color.Bold)
	noteColor    = color.New(color.FgBlue)
)

// Pretty renders
//
//	file(line)[col]: error TYP3001: message
//	  = note: file(line)[col]: in instantiation of ...
//
// followed by a summary line. Bag order is kept; call bag.Sort first.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}

	items := bag.Items()
	n := limit(len(items), opts.Max)
	var sb strings.Builder
	for _, d := range items[:n] {
		if loc := location(d.Location, opts.PathMode); loc != "" {
			sb.WriteString(paint(locColor, loc))
			sb.WriteString(": ")
		}
		sb.WriteString(paint(severityColor(d.Severity), d.Severity.String()))
		sb.WriteString(" ")
		sb.WriteString(paint(codeColor, d.Code.ID()))
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		sb.WriteString("\n")
		if opts.ShowNotes {
			for _, note := range d.Notes {
				sb.WriteString("  = ")
				sb.WriteString(paint(noteColor, "note"))
				sb.WriteString(": ")
				if loc := location(note.Location, opts.PathMode); loc != "" {
					sb.WriteString(loc)
					sb.WriteString(": ")
				}
				sb.WriteString(note.Msg)
				sb.WriteString("\n")
			}
		}
	}
	if hidden := len(items) - n; hidden > 0 {
		fmt.Fprintf(&sb, "... and %d more\n", hidden)
	}
	if summary := Summary(bag); summary != "" {
		sb.WriteString(summary)
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	}
	return infoColor
}

// Summary is "2 errors, 1 warning", or empty for an empty bag.
func Summary(bag *diag.Bag) string {
	errs, warns := bag.Count(diag.SevError), bag.Count(diag.SevWarning)
	var parts []string
	if errs > 0 {
		parts = append(parts, plural(errs, "error"))
	}
	if warns > 0 {
		parts = append(parts, plural(warns, "warning"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
