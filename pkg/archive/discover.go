package archive

import (
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/scormtr/scormtr/pkg/scormerr"
)

const manifestBasename = "imsmanifest.xml"

// FindManifest locates imsmanifest.xml per the manifest-discovery rule:
// the first entry (in central-directory order) whose lowercased basename
// matches and whose path does not start with __MACOSX/ wins. It sets
// a.RootPrefix to that entry's parent directory and returns the entry's
// normalized relative path.
func (a *Archive) FindManifest() (string, error) {
	for _, f := range a.entries {
		cleaned := resolvedName(f.Name)
		normalized := NormalizeEntryName(cleaned)
		if strings.HasPrefix(normalized, "__MACOSX/") {
			continue
		}
		if strings.ToLower(path.Base(normalized)) != manifestBasename {
			continue
		}
		a.RootPrefix = path.Dir(normalized)
		if a.RootPrefix == "." {
			a.RootPrefix = ""
		}
		return normalized, nil
	}
	return "", scormerr.New(scormerr.NotAScorm, "no imsmanifest.xml entry found")
}

// HTMLFiles returns the package-relative paths (relative to RootPrefix)
// of every *.htm/*.html entry, sorted lexicographically — the order §5
// requires content extraction to walk files in.
func (a *Archive) HTMLFiles() []string {
	var out []string
	for _, f := range a.entries {
		cleaned := resolvedName(f.Name)
		normalized := NormalizeEntryName(cleaned)
		if strings.HasPrefix(normalized, "__MACOSX/") {
			continue
		}
		rel := strings.TrimPrefix(normalized, a.RootPrefix)
		rel = strings.TrimPrefix(rel, "/")
		ok, _ := doublestar.Match("**/*.htm", rel)
		if !ok {
			ok, _ = doublestar.Match("**/*.html", rel)
		}
		if !ok {
			ok, _ = doublestar.Match("*.htm", rel)
		}
		if !ok {
			ok, _ = doublestar.Match("*.html", rel)
		}
		if ok {
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out
}
