// Package report renders a translate_package run as human- or
// machine-readable output, the way the teacher's pkg/report rendered a
// validation pass: a flat Message list plus summary counters, with no
// opinion on where those messages end up.
package report

import (
	"fmt"

	"github.com/scormtr/scormtr/pkg/pipeline"
)

// Severity levels for a run's messages.
type Severity string

const (
	Fatal   Severity = "FATAL"
	Warning Severity = "WARNING"
	Info    Severity = "INFO"
)

// Message is a single finding from a translate_package run: a language
// that failed outright, a file whose segments only partly applied, or
// a plain status note.
type Message struct {
	Severity Severity `json:"severity"`
	Language string   `json:"language,omitempty"`
	File     string   `json:"file,omitempty"`
	Text     string   `json:"message"`
}

func (m Message) String() string {
	switch {
	case m.Language != "" && m.File != "":
		return fmt.Sprintf("%s[%s](%s): %s", m.Severity, m.Language, m.File, m.Text)
	case m.Language != "":
		return fmt.Sprintf("%s[%s]: %s", m.Severity, m.Language, m.Text)
	default:
		return fmt.Sprintf("%s: %s", m.Severity, m.Text)
	}
}

// Report wraps a pipeline.Stats with the message log accumulated while
// producing it.
type Report struct {
	Stats    *pipeline.Stats `json:"stats"`
	Messages []Message       `json:"messages"`
}

// NewReport starts an empty report for the given run.
func NewReport(stats *pipeline.Stats) *Report {
	return &Report{Stats: stats}
}

// Add appends a message to the report.
func (r *Report) Add(sev Severity, language, file, text string) {
	r.Messages = append(r.Messages, Message{Severity: sev, Language: language, File: file, Text: text})
}

// FatalCount returns the number of FATAL messages.
func (r *Report) FatalCount() int { return r.countSeverity(Fatal) }

// WarningCount returns the number of WARNING messages.
func (r *Report) WarningCount() int { return r.countSeverity(Warning) }

func (r *Report) countSeverity(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// Succeeded reports whether the run recorded no FATAL message and
// produced at least one output archive. It does not compare the
// produced languages with the requested ones.
func (r *Report) Succeeded() bool {
	return r.FatalCount() == 0 && r.Stats != nil && len(r.Stats.Languages) > 0
}
