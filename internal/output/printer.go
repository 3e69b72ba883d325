package output

import (
	"fmt"
	"io"
)

// Markers prefixing operator-facing diagnostic lines.
const (
	successMarker = " (+) "
	failureMarker = " (-) "
)

// Printer writes operator-facing diagnostics to a single destination.
// It is not safe for concurrent use; the shell processes one command at
// a time.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Successf reports a successful step.
func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintf(p.w, successMarker+format+"\n", args...)
}

// Failf reports a failed step or precondition. Failures rendered through
// Failf are diagnostics, not fatal errors; the caller decides whether the
// operation continues.
func (p *Printer) Failf(format string, args ...any) {
	fmt.Fprintf(p.w, failureMarker+format+"\n", args...)
}

// Blank emits an empty separator line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}
