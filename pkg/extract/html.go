package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// nonTranslatableTags have their whole subtree skipped; text inside them
// is never emitted as a segment.
var nonTranslatableTags = map[string]bool{
	"script": true, "style": true, "code": true, "pre": true, "noscript": true,
}

var translatableTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"span": true, "div": true, "li": true, "td": true, "th": true, "a": true,
	"label": true, "button": true, "strong": true, "em": true, "b": true, "i": true,
	"u": true, "blockquote": true, "figcaption": true, "caption": true, "legend": true,
	"summary": true, "details": true, "option": true, "title": true,
}

var translatableAttrs = map[string]bool{
	"alt": true, "title": true, "placeholder": true, "aria-label": true, "aria-description": true,
}

// voidTags have no content and, per the HTML5 tree-construction rules,
// never receive a matching end tag — real SCORM authoring tools
// routinely emit them without a trailing "/>" (<br>, <img ...>, <meta
// ...>). They must never receive a pushed stack frame, self-closing
// syntax or not, or a later unrelated closing tag can never pop it and
// every subsequent ancestor frame becomes unreachable.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var wsRe = regexp.MustCompile(`\s+`)

// htmlFrame tracks one open translatable element while its direct text
// is being accumulated; non-translatable elements are pushed too so that
// "direct" text (text whose immediate parent is this element) can be
// distinguished from text belonging to a nested child.
type htmlFrame struct {
	tag          string
	translatable bool
	ordinal      int
	segIndex     int // where this element's text segment goes, so it precedes its descendants'
	text         strings.Builder
}

// ExtractHTML scans file for translatable text and attributes per
// §4.C.2. It walks the token stream produced by golang.org/x/net/html's
// tokenizer rather than a hand-rolled regex, so tag grammar — void
// elements, raw-text elements like <script>/<style>/<title>, attribute
// quoting and unescaping — is handled the way the HTML5 spec (and every
// browser) handles it. It deliberately uses the tokenizer and not the
// full tree builder (xhtml.Parse): Raw() exposes the exact source bytes
// behind each token, which pkg/rebuild/html_apply.go needs to splice
// translations into the original file without re-serializing it: a
// parsed *xhtml.Node tree carries decoded text and no byte offsets, and
// tree construction itself restructures malformed markup (exactly the
// "tolerant of broken nesting" input this extractor must pass through
// unchanged until rebuild).
func ExtractHTML(file string, data []byte) []Segment {
	z := xhtml.NewTokenizer(bytes.NewReader(data))

	var segs []Segment
	var stack []*htmlFrame
	ordinal := 0
	skipDepth := 0

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			break
		}

		switch tt {
		case xhtml.TextToken:
			appendDirectText(stack, skipDepth, string(z.Raw()))

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			tok := z.Token()
			tagName := tok.Data
			selfClosed := tt == xhtml.SelfClosingTagToken || voidTags[tagName]

			switch {
			case skipDepth > 0:
				if nonTranslatableTags[tagName] && !selfClosed {
					skipDepth++
				}
			case nonTranslatableTags[tagName]:
				if !selfClosed {
					skipDepth++
				}
			default:
				isTranslatable := translatableTags[tagName]
				ord := 0
				if isTranslatable {
					ord = ordinal
					ordinal++
					emitHTMLAttrs(&segs, file, tagName, ord, tok.Attr)
				}
				if !selfClosed {
					stack = append(stack, &htmlFrame{tag: tagName, translatable: isTranslatable, ordinal: ord, segIndex: len(segs)})
				}
			}

		case xhtml.EndTagToken:
			tok := z.Token()
			tagName := tok.Data
			if voidTags[tagName] {
				continue
			}
			if skipDepth > 0 {
				if nonTranslatableTags[tagName] {
					skipDepth--
				}
				continue
			}
			if len(stack) > 0 && stack[len(stack)-1].tag == tagName {
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if frame.translatable {
					emitHTMLText(&segs, file, frame)
				}
			}
		}
	}

	return segs
}

func appendDirectText(stack []*htmlFrame, skipDepth int, text string) {
	if skipDepth > 0 || len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	if top.translatable {
		top.text.WriteString(text)
	}
}

func emitHTMLText(segs *[]Segment, file string, frame *htmlFrame) {
	collapsed := collapseWhitespace(html.UnescapeString(frame.text.String()))
	if runeLen(collapsed) < 3 {
		return
	}
	seg := Segment{
		ID:       fmt.Sprintf("html_%s_%s_%d", file, frame.tag, frame.ordinal),
		Original: collapsed,
		Kind:     HTMLText,
		Anchor:   Anchor{Tag: frame.tag, Ordinal: frame.ordinal, Literal: frame.text.String()},
		IsHTML:   strings.ContainsRune(collapsed, '<'),
		File:     file,
	}
	*segs = append(*segs, Segment{})
	copy((*segs)[frame.segIndex+1:], (*segs)[frame.segIndex:])
	(*segs)[frame.segIndex] = seg
}

// emitHTMLAttrs reads translatable attribute values off an already
// unescaped xhtml.Token — the tokenizer's TagAttr (which Token uses
// internally) resolves entity references in attribute values itself, so
// no separate html.UnescapeString pass is needed here.
func emitHTMLAttrs(segs *[]Segment, file, tag string, ordinal int, attrs []xhtml.Attribute) {
	for _, a := range attrs {
		name := strings.ToLower(a.Key)
		if !translatableAttrs[name] {
			continue
		}
		value := a.Val
		if runeLen(value) < 3 {
			continue
		}
		*segs = append(*segs, Segment{
			ID:       fmt.Sprintf("html_%s_%s_%d_%s", file, tag, ordinal, name),
			Original: value,
			Kind:     HTMLAttr,
			Anchor:   Anchor{Tag: tag, Attr: name, Ordinal: ordinal, Literal: value},
			File:     file,
		})
	}
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
