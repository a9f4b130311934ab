package diagfmt

import (
	"fmt"
	"io"

	"qllc/internal/diag"
)

// Short writes one line per diagnostic, `severity: file(line)[column]: text`,
// and indented notes when withNotes is set.
func Short(w io.Writer, bag *diag.Bag, withNotes bool) error {
	for _, d := range bag.Items() {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
		if !withNotes {
			continue
		}
		for _, n := range d.Notes {
			line := "  note: " + n.Msg
			if n.Location != nil {
				line = "  note: " + n.Location.String() + ": " + n.Msg
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
