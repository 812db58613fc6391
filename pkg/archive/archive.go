// Package archive implements safe, adversarial-input-resistant ZIP
// extraction and byte-stable repackaging for SCORM content packages. It
// follows the same "validate before you touch a single byte" posture as
// the teacher's pkg/validate/ocf.go, and borrows pkg/epub/reader.go's
// approach to filename resolution.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

const fileCreateFlags = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// Limits enforced by Validate, per the archive-safety contract.
const (
	MaxEntries           = 10000
	MaxUncompressedTotal = 1 << 30 // 1 GiB
	MaxCompressionRatio  = 100
)

// A symlink entry is identified by the upper bits of its external
// attributes carrying the Unix S_IFLNK mode, the same convention Info-ZIP
// and the Go archive/zip package both use.
const (
	unixModeMask = uint32(0xFFFF0000)
	unixModeLnk  = uint32(0120000) << 16
)

// Archive wraps an opened ZIP central directory together with the
// scratch filesystem its entries will be extracted into.
type Archive struct {
	Path    string
	zr      *zip.ReadCloser
	fs      afero.Fs
	entries []*zip.File

	// ScratchDir is the root the archive is (or will be) extracted into.
	ScratchDir string

	// RootPrefix is the in-archive directory imsmanifest.xml was found
	// under, possibly empty for an archive rooted at its own top level.
	RootPrefix string
}

// Open reads the central directory of the ZIP at path without extracting
// any entry. Callers must call Validate before Extract.
func Open(zipPath string, fs afero.Fs) (*Archive, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return &Archive{
		Path:    zipPath,
		zr:      zr,
		fs:      fs,
		entries: zr.File,
	}, nil
}

// Close releases the underlying ZIP reader. It is safe to call multiple
// times.
func (a *Archive) Close() error {
	if a.zr == nil {
		return nil
	}
	err := a.zr.Close()
	a.zr = nil
	return err
}

// Entries returns the raw central-directory entries in archive order.
func (a *Archive) Entries() []*zip.File { return a.entries }

// resolvedName mirrors pkg/epub's ResolveHref: it cleans a ZIP entry
// name into a slash-separated relative path with no leading "/" and no
// "." or ".." components remaining after path.Clean.
func resolvedName(name string) string {
	n := strings.ReplaceAll(name, "\\", "/")
	n = strings.TrimPrefix(n, "/")
	return path.Clean(n)
}

// escapesRoot reports whether a cleaned entry name would resolve outside
// the extraction root.
func escapesRoot(cleaned string) bool {
	return cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned)
}

func isSymlink(f *zip.File) bool {
	return f.ExternalAttrs&unixModeMask == unixModeLnk
}

// readAll is a small helper over zip.File.Open + io.ReadAll used by
// Extract. Validate never calls it: its ratio checks use only the
// declared sizes in the central directory.
func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
