package term

import (
	"fmt"
	"io"

	"github.com/good-yellow-bee/countdown/internal/countdown"
)

// Printer writes one line per visible frame. It is used when output is not
// a terminal.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Render writes the frame if it is visible. Urgent frames carry a marker.
func (p *Printer) Render(f countdown.Frame) {
	if !f.Visible {
		return
	}
	if f.Urgent {
		fmt.Fprintf(p.w, "%s [urgent]\n", f.Line())
		return
	}
	fmt.Fprintln(p.w, f.Line())
}
