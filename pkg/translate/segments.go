package translate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/scormtr/scormtr/pkg/extract"
	"github.com/scormtr/scormtr/pkg/scormerr"
	"go.uber.org/zap"
)

const maxBatchSize = 50

var fragmentTagRe = regexp.MustCompile(`(?s)<(/?)([a-zA-Z][a-zA-Z0-9]*)((?:[^>"']|"[^"]*"|'[^']*')*)>`)

// TranslateSegments translates every segment's text through provider,
// applying the is_html-aware text-node walk of §4.D to segments flagged
// IsHTML and batching the remainder. It returns a complete
// TranslationMap in which any segment the provider could not translate
// keeps its original text, per the partial-failure policy — unless a
// batch call itself returns an error, in which case it returns that
// error (as ProviderTransient) and no map.
func TranslateSegments(ctx context.Context, provider Provider, segments []extract.Segment, src, tgt string, logger *zap.Logger) (extract.TranslationMap, error) {
	logger = safeLogger(logger)
	out := make(extract.TranslationMap, len(segments))

	var plain []extract.Segment
	for _, s := range segments {
		if !s.IsHTML {
			plain = append(plain, s)
		}
	}

	plainItems := make([]BatchItem, len(plain))
	for i, s := range plain {
		plainItems[i] = BatchItem{Text: s.Original, Context: segmentContext(s), Kind: string(s.Kind)}
	}

	translated, err := translateInBatches(ctx, provider, plainItems, src, tgt)
	if err != nil {
		return nil, err
	}
	for i, s := range plain {
		out[s.ID] = translated[i]
	}

	for _, s := range segments {
		if !s.IsHTML {
			continue
		}
		txt, err := translateHTMLFragment(ctx, provider, s.Original, src, tgt)
		if err != nil {
			logger.Warn("html fragment translation failed, passing original through",
				zap.String("segment_id", s.ID), zap.Error(err))
			txt = s.Original
		}
		out[s.ID] = txt
	}

	return out, nil
}

func translateInBatches(ctx context.Context, p Provider, items []BatchItem, src, tgt string) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for start := 0; start < len(items); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		res, err := p.TranslateMany(ctx, chunk, src, tgt)
		if err != nil {
			return nil, scormerr.Wrap(scormerr.ProviderTransient, "batch translation failed", err)
		}
		out = append(out, padOrTrimBatch(res, chunk)...)
	}
	return out, nil
}

// segmentContext describes a segment's surrounding element so the LLM
// batch prompt can judge register and markup expectations, per §4.D's
// per-segment (id, text, context, kind) tuple.
func segmentContext(s extract.Segment) string {
	switch s.Kind {
	case extract.HTMLText:
		return fmt.Sprintf("%s: text inside <%s>", s.File, s.Anchor.Tag)
	case extract.HTMLAttr:
		return fmt.Sprintf("%s: %q attribute on <%s>", s.File, s.Anchor.Attr, s.Anchor.Tag)
	case extract.RiseJSON:
		return fmt.Sprintf("%s: Rise course field %s", s.File, s.Anchor.JSONPath)
	case extract.XMLText:
		return fmt.Sprintf("%s: manifest field %s", s.File, s.Anchor.XPath)
	default:
		return s.File
	}
}

// padOrTrimBatch enforces the §4.D same-length contract defensively: a
// provider that returns too few or too many results has its output
// padded with (or trimmed to) the original chunk's text rather than
// panicking downstream.
func padOrTrimBatch(results []string, originals []BatchItem) []string {
	if len(results) == len(originals) {
		return results
	}
	out := make([]string, len(originals))
	copy(out, results)
	for i := len(results); i < len(originals); i++ {
		out[i] = originals[i].Text
	}
	return out
}

// translateHTMLFragment walks an is_html segment's raw string, leaving
// tags and attributes untouched and translating each non-whitespace text
// run of length >= 2 individually, per §4.D's HTML-aware requirement.
func translateHTMLFragment(ctx context.Context, p Provider, raw, src, tgt string) (string, error) {
	var sb strings.Builder
	pos := 0
	for pos < len(raw) {
		loc := fragmentTagRe.FindStringIndex(raw[pos:])
		if loc == nil {
			translated, err := translateTextRun(ctx, p, raw[pos:], src, tgt)
			if err != nil {
				return "", err
			}
			sb.WriteString(translated)
			break
		}
		tagStart := pos + loc[0]
		tagEnd := pos + loc[1]

		translated, err := translateTextRun(ctx, p, raw[pos:tagStart], src, tgt)
		if err != nil {
			return "", err
		}
		sb.WriteString(translated)
		sb.WriteString(raw[tagStart:tagEnd])
		pos = tagEnd
	}
	return sb.String(), nil
}

func translateTextRun(ctx context.Context, p Provider, text, src, tgt string) (string, error) {
	if nonWhitespaceRuneLen(text) < 2 {
		return text, nil
	}
	return p.TranslateOne(ctx, text, src, tgt)
}

func nonWhitespaceRuneLen(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\n\r", r) {
			n++
		}
	}
	return n
}
