package archive

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// vowelAcute maps a bare vowel to its acute-accented form, used to
// repair the documented macOS "NFD-as-CP437" mojibake pattern where a
// combining-accent byte sequence decodes as box-drawing characters
// instead of composing onto the preceding vowel.
var vowelAcute = map[rune]rune{
	'a': 'á', 'e': 'é', 'i': 'í', 'o': 'ó', 'u': 'ú',
	'A': 'Á', 'E': 'É', 'I': 'Í', 'O': 'Ó', 'U': 'Ú',
}

const (
	mojibakeLead = '╠' // box-drawing double-vertical-and-right
	accentTail   = 'ü' // latin small u with diaeresis, stands in for combining acute
	enyeTail     = 'ƒ' // latin small f with hook, stands in for combining tilde
)

// repairNFDMojibake fixes the documented corrupted byte sequences before
// NFC normalization runs. The mapping table here is part of the
// filename-repair contract: U+2560 U+00FC following a vowel composes to
// that vowel's acute form; U+2560 U+0192 following 'n'/'N' composes to
// 'ñ'/'Ñ'.
func repairNFDMojibake(s string) string {
	if !strings.ContainsRune(s, mojibakeLead) {
		return s
	}
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == mojibakeLead && i+1 < len(runes) && len(out) > 0 {
			prev := out[len(out)-1]
			next := runes[i+1]
			switch {
			case next == accentTail:
				if acute, ok := vowelAcute[prev]; ok {
					out[len(out)-1] = acute
					i++
					continue
				}
			case next == enyeTail:
				if prev == 'n' {
					out[len(out)-1] = 'ñ'
					i++
					continue
				}
				if prev == 'N' {
					out[len(out)-1] = 'Ñ'
					i++
					continue
				}
			}
		}
		out = append(out, r)
	}
	return string(out)
}

// NormalizeEntryName repairs known mojibake and NFC-normalizes a ZIP
// entry name, matching pkg/epub's ResolveHref handling of percent-decoded
// hrefs.
func NormalizeEntryName(name string) string {
	repaired := repairNFDMojibake(name)
	return norm.NFC.String(repaired)
}
