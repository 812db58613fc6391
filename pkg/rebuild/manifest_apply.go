package rebuild

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/scormtr/scormtr/pkg/extract"
)

// applyManifestSegments rewrites <title>X</title> and <description>X</description>
// literal occurrences in the raw manifest bytes, one replacement per
// segment in emission order, escaping both the search literal and the
// replacement the same way well-formed XML character data would. A
// segment whose literal can no longer be found (XXE-hardened parsing
// already rejects malformed input, so this should only happen if the
// manifest was hand-edited between extraction and rebuild) is counted
// as skipped rather than aborting the file.
func applyManifestSegments(data []byte, segs []extract.Segment, translations extract.TranslationMap) ([]byte, int, int) {
	applied, skipped := 0, 0

	for _, seg := range segs {
		tag := "title"
		if strings.HasSuffix(seg.ID, "_description") {
			tag = "description"
		}

		translated, ok := translations[seg.ID]
		if !ok {
			translated = seg.Original
		}

		literal := fmt.Sprintf("<%s>%s</%s>", tag, xmlEscapeText(seg.Original), tag)
		replacement := fmt.Sprintf("<%s>%s</%s>", tag, xmlEscapeText(translated), tag)

		idx := bytes.Index(data, []byte(literal))
		if idx < 0 {
			skipped++
			continue
		}

		newData := make([]byte, 0, len(data)-len(literal)+len(replacement))
		newData = append(newData, data[:idx]...)
		newData = append(newData, replacement...)
		newData = append(newData, data[idx+len(literal):]...)
		data = newData
		applied++
	}

	return data, applied, skipped
}

var xmlEscapeReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func xmlEscapeText(s string) string {
	return xmlEscapeReplacer.Replace(s)
}
