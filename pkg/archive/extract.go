package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scormtr/scormtr/pkg/scormerr"
)

// Extract stream-extracts every validated entry into scratchDir on the
// archive's filesystem, repairing and NFC-normalizing each entry name.
// Callers must have called Validate first; Extract does not re-check the
// zip-bomb/zip-slip/symlink guards.
func (a *Archive) Extract(scratchDir string) error {
	a.ScratchDir = scratchDir
	if err := a.fs.MkdirAll(scratchDir, 0o755); err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}

	for _, f := range a.entries {
		cleaned := resolvedName(f.Name)
		normalized := NormalizeEntryName(cleaned)
		dest := filepath.Join(scratchDir, filepath.FromSlash(normalized))

		if strings.HasSuffix(f.Name, "/") {
			if err := a.fs.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("creating directory %q: %w", normalized, err)
			}
			continue
		}

		if err := a.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating parent of %q: %w", normalized, err)
		}

		data, err := readAll(f)
		if err != nil {
			return scormerr.Wrap(scormerr.Internal, fmt.Sprintf("reading entry %q", f.Name), err)
		}

		out, err := a.fs.OpenFile(dest, fileCreateFlags, f.Mode().Perm()|0o200)
		if err != nil {
			return fmt.Errorf("creating %q: %w", normalized, err)
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			return fmt.Errorf("writing %q: %w", normalized, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("closing %q: %w", normalized, err)
		}
	}

	return nil
}
