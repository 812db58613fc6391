package manifest

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/scormtr/scormtr/pkg/scormerr"
)

// maxTokens bounds the size of the tree the parser will build from a
// single manifest, per §4.B's "bound tree size" security requirement.
const maxTokens = 500000

// Parse decodes imsmanifest.xml into a Tree. encoding/xml never resolves
// DTDs or external entities — it treats a DOCTYPE as an opaque
// xml.Directive token and only expands the five predefined XML entities
// — so no further hardening is needed to refuse XXE; Parse additionally
// bounds total token count to refuse pathological nesting.
func Parse(data []byte) (*Tree, []string, error) {
	// Count every token, at any depth, before building the tree.
	pre := xml.NewDecoder(bytes.NewReader(data))
	for n := 0; ; n++ {
		if _, err := pre.RawToken(); err != nil {
			break
		}
		if n >= maxTokens {
			return nil, nil, scormerr.New(scormerr.MalformedManifest, "manifest exceeds the maximum token bound")
		}
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	tree := &Tree{}
	var manifestAttrs []xml.Attr
	var xmlns string
	var schemaVersionText string
	tokenCount := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, scormerr.Wrap(scormerr.MalformedManifest, "parsing imsmanifest.xml", err)
		}
		tokenCount++
		if tokenCount > maxTokens {
			return nil, nil, scormerr.New(scormerr.MalformedManifest, "manifest exceeds the maximum token bound")
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "manifest":
			manifestAttrs = start.Attr
			xmlns = defaultNamespace(start)
		case "metadata":
			md, err := parseMetadataBlock(dec)
			if err != nil {
				return nil, nil, scormerr.Wrap(scormerr.MalformedManifest, "parsing metadata", err)
			}
			tree.Metadata = md.Metadata
			if schemaVersionText == "" {
				schemaVersionText = md.schemaVersion
			}
		case "organizations":
			orgs, defaultOrg, err := parseOrganizations(dec, start.Attr)
			if err != nil {
				return nil, nil, scormerr.Wrap(scormerr.MalformedManifest, "parsing organizations", err)
			}
			tree.Organizations = orgs
			tree.DefaultOrganization = defaultOrg
		case "resources":
			resources, err := parseResources(dec)
			if err != nil {
				return nil, nil, scormerr.Wrap(scormerr.MalformedManifest, "parsing resources", err)
			}
			tree.Resources = resources
		}
	}

	if tree.Organizations == nil && tree.Resources == nil {
		return nil, nil, scormerr.New(scormerr.MalformedManifest, "manifest has no <organizations> or <resources>")
	}

	tree.Version = detectVersion(manifestAttrs, schemaVersionText, xmlns)
	warnings := validateIdentifierRefs(tree)
	return tree, warnings, nil
}

func defaultNamespace(start xml.StartElement) string {
	var sb strings.Builder
	for _, a := range start.Attr {
		if a.Name.Local == "xmlns" || a.Name.Space == "xmlns" {
			sb.WriteString(a.Value)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// collectText reads every CharData token within the subtree rooted at
// the already-consumed start element, ignoring nested tag structure,
// and returns the trimmed concatenation. This reads both flat
// <title>Curso</title> and LOM-style <title><langstring>Curso</langstring></title>
// forms uniformly.
func collectText(dec *xml.Decoder, _ xml.StartElement) (string, error) {
	depth := 0
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
}

// skipElement discards every token within the subtree rooted at an
// already-consumed start element.
func skipElement(dec *xml.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}
