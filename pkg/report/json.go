package report

import (
	"encoding/json"
	"io"
)

// jsonOutput is the JSON structure written to output files and stdout.
type jsonOutput struct {
	Succeeded    bool      `json:"succeeded"`
	Messages     []Message `json:"messages"`
	FatalCount   int       `json:"fatal_count"`
	WarningCount int       `json:"warning_count"`
	Stats        any       `json:"stats"`
}

// WriteJSON writes the report in JSON format to w.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonOutput{
		Succeeded:    r.Succeeded(),
		Messages:     r.Messages,
		FatalCount:   r.FatalCount(),
		WarningCount: r.WarningCount(),
		Stats:        r.Stats,
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
