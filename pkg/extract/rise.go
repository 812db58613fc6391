package extract

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var deserializeRe = regexp.MustCompile(`deserialize\("([A-Za-z0-9+/=]+)"\)`)

const riseDetectWindow = 5 * 1024

// DetectRise implements §4.C.3's detection rule: the first 5 KiB of the
// file must contain both "__fetchCourse" and the start of a
// deserialize("...") call.
func DetectRise(data []byte) (start, end int, b64 string, ok bool) {
	head := data
	if len(head) > riseDetectWindow {
		head = head[:riseDetectWindow]
	}
	if !bytes.Contains(head, []byte("__fetchCourse")) {
		return 0, 0, "", false
	}

	loc := deserializeRe.FindSubmatchIndex(data)
	if loc == nil || loc[0] >= riseDetectWindow {
		return 0, 0, "", false
	}
	return loc[0], loc[1], string(data[loc[2]:loc[3]]), true
}

// RiseConfig carries the Rise content-field whitelist as data rather
// than a hard-coded set, per the resolved Open Question that the
// translatable-key whitelist must be configurable.
type RiseConfig struct {
	ContentFields      []string
	LabelPathSubstring string
	SkipKeys           []string
}

// DefaultRiseConfig reproduces the whitelist described in §4.C.3.
func DefaultRiseConfig() RiseConfig {
	return RiseConfig{
		ContentFields: []string{
			"title", "heading", "paragraph", "description", "caption",
			"text", "label", "buttontext", "question", "answer", "feedback",
		},
		LabelPathSubstring: "labelSet.labels",
		SkipKeys: []string{
			"id", "key", "src", "href", "color", "icon", "media",
			"settings", "background", "exportSettings",
		},
	}
}

var (
	urlPrefixRe    = regexp.MustCompile(`(?i)^(https?://|mailto:|//)`)
	hexTokenRe     = regexp.MustCompile(`^[0-9a-fA-F-]{32,}$`)
	colorRe        = regexp.MustCompile(`(?i)^#([0-9a-f]{6}|[0-9a-f]{8})$`)
	digitsPunctRe  = regexp.MustCompile(`^[\d\s.,:;/_-]+$`)
)

func looksNonTextual(s string) bool {
	return urlPrefixRe.MatchString(s) ||
		hexTokenRe.MatchString(s) ||
		colorRe.MatchString(s) ||
		digitsPunctRe.MatchString(s)
}

// ExtractRise decodes a Rise bootstrap's embedded course model and walks
// it depth-first, emitting one RISE_JSON segment per whitelisted string
// field. Decode or JSON-parse failures yield zero segments (it returns
// no error) — the extractor never aborts the pipeline over one malformed
// file.
func ExtractRise(file string, data []byte, cfg RiseConfig) []Segment {
	_, _, b64, ok := DetectRise(data)
	if !ok {
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil
	}

	var course interface{}
	if err := json.Unmarshal(raw, &course); err != nil {
		return nil
	}

	skip := make(map[string]bool, len(cfg.SkipKeys))
	for _, k := range cfg.SkipKeys {
		skip[strings.ToLower(k)] = true
	}
	whitelist := make(map[string]bool, len(cfg.ContentFields))
	for _, k := range cfg.ContentFields {
		whitelist[strings.ToLower(k)] = true
	}

	var segs []Segment
	walkRise(course, "", file, skip, whitelist, cfg.LabelPathSubstring, &segs)
	return segs
}

func walkRise(node interface{}, path, file string, skip, whitelist map[string]bool, labelSubstr string, segs *[]Segment) {
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if skip[strings.ToLower(k)] {
				continue
			}
			childPath := joinRisePath(path, k)
			val := v[k]
			if s, isStr := val.(string); isStr {
				if isRiseTranslatable(k, childPath, whitelist, labelSubstr) && runeLen(s) >= 3 && !looksNonTextual(s) {
					emitRiseSegment(segs, file, childPath, s)
				}
				continue
			}
			walkRise(val, childPath, file, skip, whitelist, labelSubstr, segs)
		}
	case []interface{}:
		for i, item := range v {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			walkRise(item, childPath, file, skip, whitelist, labelSubstr, segs)
		}
	}
}

func isRiseTranslatable(key, fullPath string, whitelist map[string]bool, labelSubstr string) bool {
	if whitelist[strings.ToLower(key)] {
		return true
	}
	return labelSubstr != "" && strings.Contains(fullPath, labelSubstr)
}

func joinRisePath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

var riseIDReplacer = strings.NewReplacer(".", "_", "[", "_", "]", "_")

func riseSegmentID(path string) string {
	return "rise_" + riseIDReplacer.Replace(path)
}

func emitRiseSegment(segs *[]Segment, file, path, value string) {
	*segs = append(*segs, Segment{
		ID:       riseSegmentID(path),
		Original: value,
		Kind:     RiseJSON,
		Anchor:   Anchor{JSONPath: path, Literal: value},
		IsHTML:   strings.ContainsRune(value, '<'),
		File:     file,
	})
}
