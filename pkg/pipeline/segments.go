package pipeline

import (
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/scormtr/scormtr/pkg/archive"
	"github.com/scormtr/scormtr/pkg/extract"
	"github.com/scormtr/scormtr/pkg/manifest"
)

// extractSegments walks the extracted package's manifest and every
// HTML file, in the order §5 requires (manifest first, then HTML files
// lexicographically), deciding per file whether it is an Articulate
// Rise bootstrap or generic markup. Manifest segments are emitted with
// the extract.ManifestFile sentinel; this rewrites their File to the
// manifest's real scratch-relative path so pkg/rebuild can stage and
// reread the same file rebuild writes back to.
func extractSegments(fs afero.Fs, scratchDir, manifestRel string, a *archive.Archive, tree *manifest.Tree) (extract.Result, error) {
	var segments []extract.Segment

	manifestSegs := extract.ExtractManifest(tree)
	for i := range manifestSegs {
		manifestSegs[i].File = manifestRel
	}
	segments = append(segments, manifestSegs...)

	riseCfg := extract.DefaultRiseConfig()

	for _, rel := range a.HTMLFiles() {
		fullRel := path.Join(a.RootPrefix, rel)
		data, err := afero.ReadFile(fs, filepath.Join(scratchDir, filepath.FromSlash(fullRel)))
		if err != nil {
			continue
		}

		if _, _, _, ok := extract.DetectRise(data); ok {
			segments = append(segments, extract.ExtractRise(fullRel, data, riseCfg)...)
			continue
		}
		segments = append(segments, extract.ExtractHTML(fullRel, data)...)
	}

	return extract.NewResult(segments), nil
}
