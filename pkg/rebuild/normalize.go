package rebuild

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/scormtr/scormtr/pkg/archive"
)

// referenceExts are the file types NormalizeFilenames rewrites inbound
// references in, mirroring the Python original's filename_normalizer
// covering markup, styling and script sources.
var referenceExts = map[string]bool{
	".html": true, ".htm": true, ".xml": true, ".css": true, ".js": true,
}

// NormalizeFilenames is the optional pass described by SPEC_FULL.md
// §12: off by default, it ASCII-transliterates accented filenames
// (so the byte-for-byte repackaging contract never has to carry
// mojibake it just repaired on extraction back out the other side) and
// rewrites every reference to a renamed file found in HTML, XML, CSS
// or JS content under workingDir. It returns a rename map (original
// normalized entry name -> new entry name, for archive.Repackage) and
// a map of reference-file entry names to their rewritten bytes.
func NormalizeFilenames(fs afero.Fs, workingDir string) (map[string]string, map[string][]byte, error) {
	renames := make(map[string]string)
	oldToNewBase := make(map[string]string)

	err := afero.Walk(fs, workingDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		base := filepath.Base(p)
		transliterated := transliterateFilename(base)
		if transliterated == base {
			return nil
		}

		rel, err := filepath.Rel(workingDir, p)
		if err != nil {
			return err
		}
		newRel := filepath.Join(filepath.Dir(rel), transliterated)

		oldName := archive.NormalizeEntryName(filepath.ToSlash(rel))
		newName := archive.NormalizeEntryName(filepath.ToSlash(newRel))
		renames[oldName] = newName
		oldToNewBase[base] = transliterated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(renames) == 0 {
		return nil, nil, nil
	}

	refs := make(map[string][]byte)
	err = afero.Walk(fs, workingDir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !referenceExts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		data, err := afero.ReadFile(fs, p)
		if err != nil {
			return err
		}
		rewritten := rewriteReferences(data, oldToNewBase)
		if bytes.Equal(rewritten, data) {
			return nil
		}
		rel, err := filepath.Rel(workingDir, p)
		if err != nil {
			return err
		}
		name := archive.NormalizeEntryName(filepath.ToSlash(rel))
		if renamed, ok := renames[name]; ok {
			name = renamed
		}
		refs[name] = rewritten
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return renames, refs, nil
}

func rewriteReferences(data []byte, oldToNewBase map[string]string) []byte {
	content := string(data)
	for old, replacement := range oldToNewBase {
		content = strings.ReplaceAll(content, old, replacement)
	}
	return []byte(content)
}

// transliterateFilename strips the diacritics repairNFDMojibake (or a
// well-formed source file) left in place, keeping the file's extension
// intact.
func transliterateFilename(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	decomposed := norm.NFD.String(stem)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String() + ext
}
