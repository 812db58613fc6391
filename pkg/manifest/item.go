package manifest

import (
	"encoding/xml"
	"strconv"
)

func parseItem(dec *xml.Decoder, attrs []xml.Attr) (*Item, error) {
	item := &Item{Visible: true}
	for _, a := range attrs {
		switch a.Name.Local {
		case "identifier":
			item.Identifier = a.Value
		case "identifierref":
			item.IdentifierRef = a.Value
		case "isvisible":
			if v, err := strconv.ParseBool(a.Value); err == nil {
				item.Visible = v
			}
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
				item.Title = txt
			case "item":
				child, err := parseItem(dec, t.Attr)
				if err != nil {
					return nil, err
				}
				item.Children = append(item.Children, child)
			case "sequencing":
				if err := parseSequencing(dec, item); err != nil {
					return nil, err
				}
			case "completionThreshold":
				for _, a := range t.Attr {
					if a.Name.Local == "minProgressMeasure" {
						if f, err := strconv.ParseFloat(a.Value, 64); err == nil {
							item.CompletionThreshold = &f
						}
					}
				}
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			default:
				if err := skipElement(dec); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return item, nil
		}
	}
}

func parseSequencing(dec *xml.Decoder, item *Item) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "controlMode":
				for _, a := range t.Attr {
					b, err := strconv.ParseBool(a.Value)
					if err != nil {
						continue
					}
					switch a.Name.Local {
					case "choice":
						item.ControlModeChoice = &b
					case "flow":
						item.ControlModeFlow = &b
					case "forwardOnly":
						item.ControlModeForwardOnly = &b
					case "constrainedChoice":
						item.ControlModeConstrainedChoice = &b
					case "preventActivation":
						item.ControlModePreventActivation = &b
					}
				}
				if err := skipElement(dec); err != nil {
					return err
				}
			case "objectives":
				if err := parseObjectives(dec, item); err != nil {
					return err
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

func parseObjectives(dec *xml.Decoder, item *Item) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "primaryObjective":
				obj, err := parseObjective(dec, t.Attr)
				if err != nil {
					return err
				}
				item.PrimaryObjective = obj
			case "objective":
				obj, err := parseObjective(dec, t.Attr)
				if err != nil {
					return err
				}
				item.SecondaryObjectives = append(item.SecondaryObjectives, *obj)
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

func parseObjective(dec *xml.Decoder, attrs []xml.Attr) (*Objective, error) {
	obj := &Objective{}
	for _, a := range attrs {
		switch a.Name.Local {
		case "objectiveID":
			obj.ID = a.Value
		case "satisfiedByMeasure":
			if v, err := strconv.ParseBool(a.Value); err == nil {
				obj.SatisfiedByMeasure = v
			}
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "minNormalizedMeasure" {
				txt, err := collectText(dec, t)
				if err != nil {
					return nil, err
				}
				if f, err := strconv.ParseFloat(txt, 64); err == nil {
					obj.MinNormalizedMeasure = &f
				}
			} else if err := skipElement(dec); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return obj, nil
		}
	}
}
