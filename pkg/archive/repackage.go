package archive

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Repackage implements the §4.A repackaging contract: it iterates the
// original archive's central directory in order and writes every entry
// under its original header — preserving compression method,
// external/internal attrs, extra fields, timestamp and comment. Entries
// whose (NFC-normalized) name is in modified get the supplied bytes;
// every other entry gets its original uncompressed content. Either way
// the payload is compressed afresh, so an unmodified entry's compressed
// bytes can differ from the original archive's. Entries in modified with no
// matching original entry are appended last with default attributes,
// matching the teacher's pkg/doctor/writer.go.
//
// renames optionally maps an original normalized entry name to the
// name it should be written under instead — the mechanism the optional
// filename-normalization pass (pkg/rebuild.NormalizeFilenames) uses to
// rewrite an entry's name while keeping its original header attributes.
// Pass nil for the default, rename-free path.
func Repackage(originalPath string, modified map[string][]byte, renames map[string]string, outputPath string, fs afero.Fs) error {
	zr, err := zip.OpenReader(originalPath)
	if err != nil {
		return fmt.Errorf("reopening original archive: %w", err)
	}
	defer zr.Close()

	out, err := fs.OpenFile(outputPath, fileCreateFlags, 0o644)
	if err != nil {
		return fmt.Errorf("creating output archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	seen := make(map[string]bool, len(modified))

	for _, f := range zr.File {
		normalized := NormalizeEntryName(resolvedName(f.Name))
		finalName := normalized
		if renames != nil {
			if rn, ok := renames[normalized]; ok {
				finalName = rn
			}
		}
		newData, isModified := modified[finalName]

		header := f.FileHeader
		header.Name = finalName
		writer, err := zw.CreateHeader(&header)
		if err != nil {
			return fmt.Errorf("writing header for %q: %w", f.Name, err)
		}

		if isModified {
			seen[finalName] = true
			if _, err := writer.Write(newData); err != nil {
				return fmt.Errorf("writing modified entry %q: %w", f.Name, err)
			}
			continue
		}

		if err := copyEntry(writer, f); err != nil {
			return fmt.Errorf("copying entry %q: %w", f.Name, err)
		}
	}

	for name, data := range modified {
		if seen[name] {
			continue
		}
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		header.SetMode(0o644)
		writer, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("writing header for new entry %q: %w", name, err)
		}
		if _, err := writer.Write(data); err != nil {
			return fmt.Errorf("writing new entry %q: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

func copyEntry(w io.Writer, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}
