package manifest

import "encoding/xml"

func parseOrganizations(dec *xml.Decoder, attrs []xml.Attr) ([]*Organization, string, error) {
	var defaultOrg string
	for _, a := range attrs {
		if a.Name.Local == "default" {
			defaultOrg = a.Value
		}
	}

	var orgs []*Organization
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "organization" {
				org, err := parseOrganization(dec, t.Attr)
				if err != nil {
					return nil, "", err
				}
				orgs = append(orgs, org)
			} else if err := skipElement(dec); err != nil {
				return nil, "", err
			}
		case xml.EndElement:
			return orgs, defaultOrg, nil
		}
	}
}

func parseOrganization(dec *xml.Decoder, attrs []xml.Attr) (*Organization, error) {
	org := &Organization{}
	for _, a := range attrs {
		if a.Name.Local == "identifier" {
			org.Identifier = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title":
				txt, err := collectText(dec, t)
				if err != nil {
					return nil, err
				}
				org.Title = txt
			case "item":
				item, err := parseItem(dec, t.Attr)
				if err != nil {
					return nil, err
				}
				org.Items = append(org.Items, item)
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return org, nil
		}
	}
}
