// Package rebuild implements §4.E: it stages a fresh working copy of an
// extracted package per target language, applies a TranslationMap back
// onto the manifest, HTML and Rise files that produced the segments,
// and repackages the result via pkg/archive. A per-file error demotes
// that file to copied-unchanged and is logged rather than retried or
// propagated, matching the teacher's doctor.go "one bad entry doesn't
// sink the report" posture.
package rebuild

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/scormtr/scormtr/pkg/archive"
	"github.com/scormtr/scormtr/pkg/extract"
)

func joinWorking(workingDir, file string) string {
	return filepath.Join(workingDir, filepath.FromSlash(file))
}

// Stats counts what happened while rebuilding one language, feeding the
// superset pipeline.Stats described in SPEC_FULL.md §12.
type Stats struct {
	FilesProcessed  int
	SegmentsApplied int
	SegmentsSkipped int
}

// Options carries everything RebuildLanguage needs beyond the segment
// data itself.
type Options struct {
	Fs                afero.Fs
	ScratchDir        string // the validated, extracted package root
	WorkingDir        string // a fresh per-language staging directory
	OriginalZipPath   string // the archive Repackage reopens for its central directory
	OutputZipPath     string
	NormalizeFilenames bool
	Logger            *zap.Logger
}

// RebuildLanguage stages a working copy of scratchDir, applies
// translations to every file that produced segments, repackages the
// result into outputZipPath, and always removes the working copy
// before returning.
func RebuildLanguage(opts Options, result extract.Result, translations extract.TranslationMap) (*Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := &Stats{}

	if err := stageWorkingCopy(opts.Fs, opts.ScratchDir, opts.WorkingDir); err != nil {
		return nil, fmt.Errorf("staging working copy: %w", err)
	}
	defer opts.Fs.RemoveAll(opts.WorkingDir)

	modified := make(map[string][]byte, len(result.ByFile))

	for file, segs := range result.ByFile {
		data, err := afero.ReadFile(opts.Fs, joinWorking(opts.WorkingDir, file))
		if err != nil {
			logger.Warn("could not read staged file, leaving entry unchanged",
				zap.String("file", file), zap.Error(err))
			continue
		}

		var newData []byte
		var applied, skipped int

		switch {
		case segs[0].Kind == extract.XMLText:
			newData, applied, skipped = applyManifestSegments(data, segs, translations)
		case hasRiseSegments(segs):
			var rerr error
			newData, applied, skipped, rerr = applyRiseSegments(data, segs, translations)
			if rerr != nil {
				logger.Warn("rise apply-back failed, file copied unchanged",
					zap.String("file", file), zap.Error(rerr))
				newData, applied, skipped = data, 0, len(segs)
			}
		default:
			newData, applied, skipped = applyHTMLSegments(data, segs, translations)
		}

		stats.FilesProcessed++
		stats.SegmentsApplied += applied
		stats.SegmentsSkipped += skipped

		if !bytes.Equal(newData, data) {
			modified[normalizeRelName(file)] = newData
		}
	}

	var renames map[string]string
	if opts.NormalizeFilenames {
		for name, data := range modified {
			if err := afero.WriteFile(opts.Fs, joinWorking(opts.WorkingDir, name), data, 0o644); err != nil {
				return nil, fmt.Errorf("writing translated %q: %w", name, err)
			}
		}
		renamed, refs, err := NormalizeFilenames(opts.Fs, opts.WorkingDir)
		if err != nil {
			return nil, fmt.Errorf("normalizing filenames: %w", err)
		}
		renames = renamed
		for oldName, newName := range renamed {
			if data, ok := modified[oldName]; ok {
				delete(modified, oldName)
				modified[newName] = data
			}
		}
		for name, data := range refs {
			modified[name] = data
		}
	}

	if err := archive.Repackage(opts.OriginalZipPath, modified, renames, opts.OutputZipPath, opts.Fs); err != nil {
		return nil, fmt.Errorf("repackaging: %w", err)
	}

	return stats, nil
}

func hasRiseSegments(segs []extract.Segment) bool {
	for _, s := range segs {
		if s.Kind == extract.RiseJSON {
			return true
		}
	}
	return false
}

func normalizeRelName(file string) string {
	return archive.NormalizeEntryName(file)
}
