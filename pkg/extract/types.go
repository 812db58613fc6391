// Package extract walks a staged package's manifest tree, HTML files,
// and Articulate Rise bootstraps, emitting the ordered Segment list that
// pkg/translate consumes and pkg/rebuild writes back.
package extract

// Kind identifies which of the three content models a Segment came
// from.
type Kind string

const (
	XMLText  Kind = "XML_TEXT"
	HTMLText Kind = "HTML_TEXT"
	HTMLAttr Kind = "HTML_ATTR"
	RiseJSON Kind = "RISE_JSON"
)

// Anchor locates where a translated Segment gets written back. Only the
// fields relevant to the Segment's Kind are populated.
type Anchor struct {
	XPath    string // XML_TEXT: descriptive XPath to the source element
	Tag      string // HTML_TEXT / HTML_ATTR: the matched tag name
	Attr     string // HTML_ATTR: the attribute name
	Ordinal  int    // HTML_TEXT / HTML_ATTR: zero-based tag occurrence in the file
	Literal  string // HTML_TEXT / HTML_ATTR / XML_TEXT: first-occurrence raw text
	JSONPath string // RISE_JSON: dotted/bracketed path into the decoded course model
}

// Segment is the atomic unit of translation.
type Segment struct {
	ID       string
	Original string
	Kind     Kind
	Anchor   Anchor
	IsHTML   bool
	File     string
}

// Result is the ordered segment list plus its file-keyed grouping.
type Result struct {
	Segments []Segment
	ByFile   map[string][]Segment
}

// NewResult groups an ordered segment list by file.
func NewResult(segments []Segment) Result {
	byFile := make(map[string][]Segment, len(segments))
	for _, s := range segments {
		byFile[s.File] = append(byFile[s.File], s)
	}
	return Result{Segments: segments, ByFile: byFile}
}

// TranslationMap maps a segment id to its translated text. A missing key
// means "write the original text through unchanged".
type TranslationMap map[string]string
