// Package pipeline orchestrates §4.F: validate, parse, extract,
// translate and rebuild, in that order, reporting progress through a
// caller-supplied callback and guaranteeing scratch-directory cleanup
// on every exit path, including cancellation. It logs, as do
// pkg/translate and pkg/rebuild; pkg/archive, pkg/manifest and
// pkg/extract stay silent, mirroring the teacher's choice to keep
// pkg/epub, pkg/validate and pkg/doctor silent and push user-facing
// output to the edges.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/scormtr/scormtr/pkg/archive"
	"github.com/scormtr/scormtr/pkg/manifest"
	"github.com/scormtr/scormtr/pkg/rebuild"
	"github.com/scormtr/scormtr/pkg/scormerr"
	"github.com/scormtr/scormtr/pkg/translate"
)

// Status is one stage of the translate_package state machine.
type Status string

const (
	Uploaded    Status = "UPLOADED"
	Validating  Status = "VALIDATING"
	Parsing     Status = "PARSING"
	Translating Status = "TRANSLATING"
	Rebuilding  Status = "REBUILDING"
	Completed   Status = "COMPLETED"
	Failed      Status = "FAILED"
)

// ProgressFunc is called as the job advances. percent is 0-100;
// err is non-nil only alongside Failed, and only describes why — the
// caller still gets the returned error from Translate.
type ProgressFunc func(status Status, percent int, err error)

// Config controls one translate_package run.
type Config struct {
	Provider           translate.Provider
	SourceLanguage     string // explicit override; falls back to the manifest's declared language
	TargetLanguages    []string
	OutputDir          string // defaults to the input archive's directory
	NormalizeFilenames bool
	Concurrency        int // bounded per-language fan-out; defaults to 2
	Fs                 afero.Fs
	Logger             *zap.Logger
}

// Stats is the superset result described in SPEC_FULL.md §12.
type Stats struct {
	RunID           string
	FilesProcessed  int
	SegmentsApplied int
	SegmentsSkipped int
	SegmentsFailed  int
	Languages       []string
	OutputPaths     map[string]string
}

// Translate runs the full A->B->C->D(xN)->E(xN) pipeline against the
// package at archivePath, producing one translated archive per target
// language in cfg.OutputDir.
func Translate(ctx context.Context, archivePath string, cfg Config, progress ProgressFunc) (*Stats, error) {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(archivePath)
	}

	emit := newEmitter(progress)
	runID := uuid.NewString()
	stats := &Stats{RunID: runID, OutputPaths: make(map[string]string, len(cfg.TargetLanguages))}

	emit(Uploaded, 0, nil)

	if err := ctx.Err(); err != nil {
		emit(Failed, 0, err)
		return stats, scormerr.Wrap(scormerr.Cancelled, "cancelled before validation", err)
	}

	emit(Validating, 2, nil)
	a, err := archive.Open(archivePath, fs)
	if err != nil {
		wrapped := scormerr.Wrap(scormerr.NotAScorm, "opening archive", err)
		emit(Failed, 2, wrapped)
		return stats, wrapped
	}
	defer a.Close()

	if vErr := a.Validate(); vErr != nil {
		emit(Failed, 2, vErr)
		return stats, vErr
	}

	scratchDir := filepath.Join(outputDir, ".scormtr-scratch-"+runID)
	defer fs.RemoveAll(scratchDir)

	emit(Parsing, 10, nil)
	if err := a.Extract(scratchDir); err != nil {
		wrapped := scormerr.Wrap(scormerr.Internal, "extracting archive", err)
		emit(Failed, 10, wrapped)
		return stats, wrapped
	}

	manifestRel, err := a.FindManifest()
	if err != nil {
		emit(Failed, 15, err)
		return stats, err
	}

	manifestData, err := afero.ReadFile(fs, filepath.Join(scratchDir, filepath.FromSlash(manifestRel)))
	if err != nil {
		wrapped := scormerr.Wrap(scormerr.Internal, "reading extracted manifest", err)
		emit(Failed, 15, wrapped)
		return stats, wrapped
	}

	tree, warnings, err := manifest.Parse(manifestData)
	if err != nil {
		wrapped := scormerr.Wrap(scormerr.MalformedManifest, "parsing manifest", err)
		emit(Failed, 15, wrapped)
		return stats, wrapped
	}
	for _, w := range warnings {
		logger.Warn("manifest parse warning", zap.String("detail", w))
	}

	emit(Parsing, 25, nil)

	result, err := extractSegments(fs, scratchDir, manifestRel, a, tree)
	if err != nil {
		wrapped := scormerr.Wrap(scormerr.Internal, "extracting content segments", err)
		emit(Failed, 25, wrapped)
		return stats, wrapped
	}
	stats.FilesProcessed = len(result.ByFile)

	sourceLang := cfg.SourceLanguage
	if sourceLang == "" {
		sourceLang = tree.Metadata.Language
	}
	if sourceLang == "" {
		err := scormerr.New(scormerr.Internal, "no source language supplied and manifest declares none")
		emit(Failed, 40, err)
		return stats, err
	}

	supported := make(map[string]bool, len(cfg.Provider.SupportedLanguages()))
	for _, l := range cfg.Provider.SupportedLanguages() {
		supported[strings.ToLower(l)] = true
	}
	for _, target := range cfg.TargetLanguages {
		if !supported[strings.ToLower(target)] {
			err := scormerr.New(scormerr.Internal, fmt.Sprintf("target language %q not supported by provider", target))
			emit(Failed, 40, err)
			return stats, err
		}
	}

	emit(Translating, 40, nil)

	if err := ctx.Err(); err != nil {
		wrapped := scormerr.Wrap(scormerr.Cancelled, "cancelled before translation", err)
		emit(Failed, 40, wrapped)
		return stats, wrapped
	}

	stem := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))

	group, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(concurrency))
	var mu sync.Mutex
	var jobErrs error
	total := len(cfg.TargetLanguages)
	completed := 0

	for _, target := range cfg.TargetLanguages {
		target := target
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)

			translations, terr := translate.TranslateSegments(gctx, cfg.Provider, result.Segments, sourceLang, target, logger)
			if terr != nil {
				mu.Lock()
				jobErrs = multierr.Append(jobErrs, fmt.Errorf("translating to %s: %w", target, terr))
				mu.Unlock()
				return nil
			}

			outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.zip", stem, target))
			rstats, rerr := rebuild.RebuildLanguage(rebuild.Options{
				Fs:                 fs,
				ScratchDir:         scratchDir,
				WorkingDir:         filepath.Join(outputDir, ".scormtr-working-"+runID+"-"+target),
				OriginalZipPath:    archivePath,
				OutputZipPath:      outputPath,
				NormalizeFilenames: cfg.NormalizeFilenames,
				Logger:             logger,
			}, result, translations)

			mu.Lock()
			defer mu.Unlock()
			if rerr != nil {
				jobErrs = multierr.Append(jobErrs, fmt.Errorf("rebuilding %s: %w", target, rerr))
				return nil
			}

			stats.Languages = append(stats.Languages, target)
			stats.OutputPaths[target] = outputPath
			stats.SegmentsApplied += rstats.SegmentsApplied
			stats.SegmentsSkipped += rstats.SegmentsSkipped

			completed++
			percent := 40 + (completed*60)/max(total, 1)
			emit(Rebuilding, percent, nil)
			return nil
		})
	}

	group.Wait()

	if err := ctx.Err(); err != nil {
		wrapped := scormerr.Wrap(scormerr.Cancelled, "pipeline cancelled", err)
		emit(Failed, 40, wrapped)
		return stats, wrapped
	}

	if jobErrs != nil {
		logger.Warn("some languages failed", zap.Error(jobErrs))
	}

	if len(stats.Languages) == 0 && total > 0 {
		err := scormerr.Wrap(scormerr.Internal, "every target language failed", jobErrs)
		emit(Failed, 100, err)
		return stats, err
	}

	emit(Completed, 100, nil)
	return stats, nil
}

func newEmitter(progress ProgressFunc) ProgressFunc {
	if progress == nil {
		return func(Status, int, error) {}
	}
	var mu sync.Mutex
	return func(status Status, percent int, err error) {
		mu.Lock()
		defer mu.Unlock()
		progress(status, percent, err)
	}
}
