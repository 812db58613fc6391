package rebuild

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/scormtr/scormtr/pkg/extract"
)

// riseNode is a JSON value decoded field-by-field off a json.Decoder's
// token stream instead of unmarshaled into map[string]interface{},
// specifically so that object keys keep their original declaration
// order. encoding/json always re-marshals a Go map with its keys sorted
// alphabetically — re-encoding a course model straight from
// map[string]interface{} would silently reorder every object whose keys
// aren't already alphabetical on every rebuild, even with the identity
// provider. Exactly one of Str/Num/Bool/Null/Obj/Arr is set per node.
type riseNode struct {
	Str  *string
	Num  json.Number
	Bool *bool
	Null bool
	Obj  *riseObject
	Arr  *riseArray
}

type riseObject struct {
	keys []string
	vals map[string]*riseNode
}

type riseArray struct {
	items []*riseNode
}

func decodeRiseNode(dec *json.Decoder) (*riseNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &riseObject{vals: map[string]*riseNode{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				val, err := decodeRiseNode(dec)
				if err != nil {
					return nil, err
				}
				obj.keys = append(obj.keys, key)
				obj.vals[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return &riseNode{Obj: obj}, nil
		case '[':
			arr := &riseArray{}
			for dec.More() {
				val, err := decodeRiseNode(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return &riseNode{Arr: arr}, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		s := t
		return &riseNode{Str: &s}, nil
	case json.Number:
		return &riseNode{Num: t}, nil
	case bool:
		b := t
		return &riseNode{Bool: &b}, nil
	case nil:
		return &riseNode{Null: true}, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func encodeRiseNode(buf *bytes.Buffer, n *riseNode) error {
	switch {
	case n.Str != nil:
		b, err := marshalNoEscape(*n.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case n.Num != "":
		buf.WriteString(string(n.Num))
	case n.Bool != nil:
		if *n.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case n.Obj != nil:
		buf.WriteByte('{')
		for i, k := range n.Obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalNoEscape(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeRiseNode(buf, n.Obj.vals[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case n.Arr != nil:
		buf.WriteByte('[')
		for i, item := range n.Arr.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeRiseNode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		buf.WriteString("null")
	}
	return nil
}

// applyRiseTranslations walks the decoded tree re-deriving each string
// field's dotted path and overwrites any path present in translations.
func applyRiseTranslations(n *riseNode, path string, byPath map[string]string, applied *int) {
	switch {
	case n.Str != nil:
		if translated, found := byPath[path]; found {
			n.Str = &translated
			*applied++
		}
	case n.Obj != nil:
		for _, k := range n.Obj.keys {
			applyRiseTranslations(n.Obj.vals[k], joinPath(path, k), byPath, applied)
		}
	case n.Arr != nil:
		for i, item := range n.Arr.items {
			applyRiseTranslations(item, fmt.Sprintf("%s[%d]", path, i), byPath, applied)
		}
	}
}

// applyRiseSegments re-decodes the file's embedded course model
// preserving its original key order, overwrites any path present in
// translations, and splices the re-serialized, re-encoded model back
// into the exact byte range extract.DetectRise located. JSON is
// re-marshaled with HTML escaping disabled so course text carrying "<"
// or "&" round-trips byte-for-byte when untranslated.
func applyRiseSegments(data []byte, segs []extract.Segment, translations extract.TranslationMap) ([]byte, int, int, error) {
	start, end, b64, ok := extract.DetectRise(data)
	if !ok {
		return data, 0, len(segs), nil
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return data, 0, len(segs), fmt.Errorf("decoding rise payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	course, err := decodeRiseNode(dec)
	if err != nil {
		return data, 0, len(segs), fmt.Errorf("parsing rise payload: %w", err)
	}

	byPath := make(map[string]string, len(segs))
	for _, seg := range segs {
		translated, ok := translations[seg.ID]
		if !ok {
			translated = seg.Original
		}
		byPath[seg.Anchor.JSONPath] = translated
	}

	applied := 0
	applyRiseTranslations(course, "", byPath, &applied)

	var buf bytes.Buffer
	if err := encodeRiseNode(&buf, course); err != nil {
		return data, 0, len(segs), fmt.Errorf("re-serializing rise payload: %w", err)
	}
	newB64 := base64.StdEncoding.EncodeToString(buf.Bytes())
	newCall := []byte(`deserialize("` + newB64 + `")`)

	newData := make([]byte, 0, len(data)-(end-start)+len(newCall))
	newData = append(newData, data[:start]...)
	newData = append(newData, newCall...)
	newData = append(newData, data[end:]...)

	return newData, applied, len(segs) - applied, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
