package rebuild

import (
	"html"
	"strings"

	"github.com/scormtr/scormtr/pkg/extract"
)

// applyHTMLSegments replaces each segment's first remaining raw-byte
// occurrence with its translation, in emission order. Because segments
// already share the file's source order, this naturally resolves
// collisions between identical original strings: once the leftmost
// occurrence is rewritten to a different value it stops matching, so
// the next search for the same literal lands on the next instance.
func applyHTMLSegments(data []byte, segs []extract.Segment, translations extract.TranslationMap) ([]byte, int, int) {
	content := string(data)
	applied, skipped := 0, 0

	for _, seg := range segs {
		translated, ok := translations[seg.ID]
		if !ok {
			translated = seg.Original
		}

		var literal string
		switch seg.Kind {
		case extract.HTMLText:
			literal = seg.Anchor.Literal
		case extract.HTMLAttr:
			literal = html.EscapeString(seg.Anchor.Literal)
		default:
			continue
		}

		idx := strings.Index(content, literal)
		if idx < 0 && seg.Kind == extract.HTMLAttr {
			literal = seg.Anchor.Literal
			idx = strings.Index(content, literal)
		}
		if idx < 0 {
			skipped++
			continue
		}

		replacement := translated
		if seg.Kind == extract.HTMLAttr {
			replacement = html.EscapeString(translated)
		} else if !seg.IsHTML {
			replacement = html.EscapeString(translated)
		}

		content = content[:idx] + replacement + content[idx+len(literal):]
		applied++
	}

	return []byte(content), applied, skipped
}
