// Package report renders the final reservation table for the operator
// when the server shuts down.
package report

import (
	"bufio"
	"io"
	"sync"
)

// Snapshotter provides one formatted line per floor in configured
// order.
type Snapshotter interface {
	Snapshot() []string
}

// Reporter writes the table dump exactly once, however many times
// Report is called.
type Reporter struct {
	source Snapshotter
	out    io.Writer
	once   sync.Once
	err    error
}

// NewReporter returns a reporter that reads source and writes to out.
func NewReporter(source Snapshotter, out io.Writer) *Reporter {
	return &Reporter{source: source, out: out}
}

// Report writes a blank line, every floor line, then a blank line.  It
// must run after the dispatcher has stopped so the table is final.
// Later calls return the first call's result without writing.
func (r *Reporter) Report() error {
	r.once.Do(func() {
		w := bufio.NewWriter(r.out)
		w.WriteString("\n")
		for _, line := range r.source.Snapshot() {
			w.WriteString(line)
			w.WriteString("\n")
		}
		w.WriteString("\n")
		r.err = w.Flush()
	})
	return r.err
}
