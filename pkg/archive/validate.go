package archive

import (
	"fmt"

	"github.com/scormtr/scormtr/pkg/scormerr"
)

// Validate scans the central directory and rejects the archive, without
// reading a single entry's payload beyond its declared sizes, if it
// trips any of the zip-bomb, zip-slip, or symlink guards. This must run
// before Extract.
func (a *Archive) Validate() *scormerr.Error {
	if len(a.entries) > MaxEntries {
		return scormerr.WithSub(scormerr.UnsafeArchive, scormerr.TooManyEntries,
			fmt.Sprintf("archive has %d entries, limit is %d", len(a.entries), MaxEntries))
	}

	var totalUncompressed uint64
	for _, f := range a.entries {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > MaxUncompressedTotal {
			return scormerr.WithSub(scormerr.UnsafeArchive, scormerr.TooLarge,
				fmt.Sprintf("uncompressed total exceeds %d bytes", MaxUncompressedTotal))
		}

		if f.CompressedSize64 > 0 {
			ratio := float64(f.UncompressedSize64) / float64(f.CompressedSize64)
			if ratio > MaxCompressionRatio {
				return scormerr.WithSub(scormerr.UnsafeArchive, scormerr.BadRatio,
					fmt.Sprintf("entry %q has compression ratio %.1f:1", f.Name, ratio))
			}
		}

		cleaned := resolvedName(f.Name)
		if escapesRoot(cleaned) {
			return scormerr.WithSub(scormerr.UnsafeArchive, scormerr.PathTraversal,
				fmt.Sprintf("entry %q resolves outside the extraction root", f.Name))
		}

		if isSymlink(f) {
			return scormerr.WithSub(scormerr.UnsafeArchive, scormerr.SymlinkEntry,
				fmt.Sprintf("entry %q carries symlink mode bits", f.Name))
		}
	}

	return nil
}
