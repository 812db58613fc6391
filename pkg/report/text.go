package report

import (
	"fmt"
	"io"
)

// WriteText writes a human-readable run summary to w.
func (r *Report) WriteText(w io.Writer) {
	for _, m := range r.Messages {
		fmt.Fprintln(w, m.String())
	}
	if r.Stats == nil {
		return
	}
	fmt.Fprintf(w, "Languages produced: %d. Segments applied: %d, skipped: %d.\n",
		len(r.Stats.Languages), r.Stats.SegmentsApplied, r.Stats.SegmentsSkipped)
	for _, lang := range r.Stats.Languages {
		fmt.Fprintf(w, "  %s -> %s\n", lang, r.Stats.OutputPaths[lang])
	}
}
