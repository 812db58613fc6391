package manifest

import (
	"encoding/xml"
	"strings"
)

// detectVersion applies §4.B's version-detection rule: schemaversion
// text wins first, falling back to a tincan/xAPI namespace hint, and
// defaulting to v12.
func detectVersion(manifestAttrs []xml.Attr, schemaVersionText, xmlns string) Version {
	sv := schemaVersionText
	if sv == "" {
		for _, a := range manifestAttrs {
			if a.Name.Local == "schemaversion" {
				sv = a.Value
				break
			}
		}
	}

	switch {
	case strings.Contains(sv, "1.2") || strings.Contains(sv, "1.1"):
		return V12
	case strings.Contains(sv, "2004") || strings.Contains(sv, "1.3"):
		return V2004
	case strings.Contains(strings.ToLower(xmlns), "tincan"):
		return XAPI
	default:
		return V12
	}
}
