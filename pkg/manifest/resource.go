package manifest

import "encoding/xml"

func parseResources(dec *xml.Decoder) ([]*Resource, error) {
	var resources []*Resource
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "resource" {
				res, err := parseResource(dec, t.Attr)
				if err != nil {
					return nil, err
				}
				resources = append(resources, res)
			} else if err := skipElement(dec); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return resources, nil
		}
	}
}

func parseResource(dec *xml.Decoder, attrs []xml.Attr) (*Resource, error) {
	res := &Resource{}
	for _, a := range attrs {
		switch a.Name.Local {
		case "identifier":
			res.ID = a.Value
		case "type":
			res.Type = a.Value
		case "href":
			res.Href = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "file" {
				for _, a := range t.Attr {
					if a.Name.Local == "href" {
						res.Files = append(res.Files, a.Value)
					}
				}
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			} else if err := skipElement(dec); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return res, nil
		}
	}
}

// validateIdentifierRefs checks that every item.IdentifierRef names a
// known resource, warning (never failing) on dangling references per
// ManifestTree's invariant.
func validateIdentifierRefs(tree *Tree) []string {
	known := make(map[string]bool, len(tree.Resources))
	for _, r := range tree.Resources {
		known[r.ID] = true
	}

	var warnings []string
	var walk func(items []*Item)
	walk = func(items []*Item) {
		for _, it := range items {
			if it.IdentifierRef != "" && !known[it.IdentifierRef] {
				warnings = append(warnings, "item "+it.Identifier+" references unknown resource "+it.IdentifierRef)
			}
			walk(it.Children)
		}
	}
	for _, org := range tree.Organizations {
		walk(org.Items)
	}
	return warnings
}
