package manifest

import "encoding/xml"

type metadataResult struct {
	Metadata
	schemaVersion string
}

// parseMetadataBlock reads the <metadata> subtree, accepting either a
// flat <title>/<description>/<language> shape or the LOM-nested
// <lom><general><title>...</title></general></lom> shape, since both
// appear across the SCORM 1.2 and 2004 corpora.
func parseMetadataBlock(dec *xml.Decoder) (metadataResult, error) {
	var out metadataResult
	for {
		tok, err := dec.Token()
		if err != nil {
			return out, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "schemaversion":
				txt, err := collectText(dec, t)
				if err != nil {
					return out, err
				}
				out.schemaVersion = txt
			case "title":
				txt, err := collectText(dec, t)
				if err != nil {
					return out, err
				}
				if out.Title == "" {
					out.Title = txt
				}
			case "description":
				txt, err := collectText(dec, t)
				if err != nil {
					return out, err
				}
				if out.Description == "" {
					out.Description = txt
				}
			case "language":
				txt, err := collectText(dec, t)
				if err != nil {
					return out, err
				}
				if out.Language == "" {
					out.Language = txt
				}
			case "lom":
				if err := parseLOMWrapper(dec, &out.Metadata); err != nil {
					return out, err
				}
			case "general":
				if err := parseLOMGeneral(dec, &out.Metadata); err != nil {
					return out, err
				}
			default:
				if err := skipElement(dec); err != nil {
					return out, err
				}
			}
		case xml.EndElement:
			return out, nil
		}
	}
}

func parseLOMWrapper(dec *xml.Decoder, md *Metadata) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "general" {
				if err := parseLOMGeneral(dec, md); err != nil {
					return err
				}
			} else if err := skipElement(dec); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func parseLOMGeneral(dec *xml.Decoder, md *Metadata) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title":
				txt, err := collectText(dec, t)
				if err != nil {
					return err
				}
				if md.Title == "" {
					md.Title = txt
				}
			case "description":
				txt, err := collectText(dec, t)
				if err != nil {
					return err
				}
				if md.Description == "" {
					md.Description = txt
				}
			case "language":
				txt, err := collectText(dec, t)
				if err != nil {
					return err
				}
				if md.Language == "" {
					md.Language = txt
				}
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}
