package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scormtr/scormtr/pkg/pipeline"
	"github.com/scormtr/scormtr/pkg/report"
	"github.com/scormtr/scormtr/pkg/translate"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

type translateFlags struct {
	source       string
	targets      []string
	outputDir    string
	providerKind string
	modelDir     string
	autoDownload bool
	apiKey       string
	model        string
	maxBatch     int
	maxTokens    int
	temperature  float64
	normalize    bool
	concurrency  int
	configPath   string
	jsonOut      string
}

func newTranslateCmd() *cobra.Command {
	var f translateFlags

	cmd := &cobra.Command{
		Use:   "translate <package.zip>",
		Short: "Translate a SCORM or Rise package into one or more target languages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.source, "src", "", "source language (overrides the manifest's declared language)")
	flags.StringSliceVar(&f.targets, "target", nil, "target language (repeatable)")
	flags.StringVar(&f.outputDir, "output-dir", "", "directory for translated archives (default: alongside the input)")
	flags.StringVar(&f.providerKind, "provider", string(translate.OnlineMT), "provider kind: online_mt, offline_mt, llm")
	flags.StringVar(&f.modelDir, "model-dir", "", "offline_mt model directory")
	flags.BoolVar(&f.autoDownload, "auto-download", false, "offline_mt: download a missing model automatically")
	flags.StringVar(&f.apiKey, "api-key", "", "llm: API key")
	flags.StringVar(&f.model, "model", "", "llm: model name")
	flags.IntVar(&f.maxBatch, "max-batch", 50, "llm: max segments per request")
	flags.IntVar(&f.maxTokens, "max-tokens", 4096, "llm: max response tokens")
	flags.Float64Var(&f.temperature, "temperature", 0.3, "llm: sampling temperature")
	flags.BoolVar(&f.normalize, "normalize-filenames", false, "rewrite accented filenames and their inbound references")
	flags.IntVar(&f.concurrency, "concurrency", 2, "number of target languages rebuilt in parallel")
	flags.StringVar(&f.configPath, "config", "", "YAML config file; flags override its values")
	flags.StringVar(&f.jsonOut, "json", "", "write a JSON report to this path (\"-\" for stdout)")

	return cmd
}

func runTranslate(cmd *cobra.Command, archivePath string, f translateFlags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return err
	}

	providerCfg := cfg.providerConfig()
	flags := cmd.Flags()
	if flags.Changed("provider") || providerCfg.Kind == "" {
		providerCfg.Kind = translate.Kind(f.providerKind)
	}
	if f.modelDir != "" {
		providerCfg.ModelDir = f.modelDir
	}
	if f.autoDownload {
		providerCfg.AutoDownload = true
	}
	if f.apiKey != "" {
		providerCfg.APIKey = f.apiKey
	}
	if f.model != "" {
		providerCfg.Model = f.model
	}
	if flags.Changed("max-batch") || providerCfg.MaxBatch == 0 {
		providerCfg.MaxBatch = f.maxBatch
	}
	if flags.Changed("max-tokens") || providerCfg.MaxTokens == 0 {
		providerCfg.MaxTokens = f.maxTokens
	}
	if flags.Changed("temperature") || providerCfg.Temperature == 0 {
		providerCfg.Temperature = f.temperature
	}
	concurrency := f.concurrency
	if !flags.Changed("concurrency") && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}

	if len(f.targets) == 0 {
		return fmt.Errorf("at least one --target language is required")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	provider, err := translate.New(providerCfg, logger)
	if err != nil {
		return fmt.Errorf("building provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	rpt := report.NewReport(nil)

	stats, err := pipeline.Translate(ctx, archivePath, pipeline.Config{
		Provider:           provider,
		SourceLanguage:     f.source,
		TargetLanguages:    f.targets,
		OutputDir:          f.outputDir,
		NormalizeFilenames: f.normalize || cfg.NormalizeFilenames,
		Concurrency:        concurrency,
		Logger:             logger,
	}, func(status pipeline.Status, percent int, progressErr error) {
		line := fmt.Sprintf("[%3d%%] %s", percent, status)
		if progressErr != nil {
			fmt.Fprintln(out, failStyle.Render(line+": "+progressErr.Error()))
			return
		}
		fmt.Fprintln(out, statusStyle.Render(line))
	})

	rpt.Stats = stats
	if err != nil {
		rpt.Add(report.Fatal, "", "", err.Error())
	} else {
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("done: %d language(s) produced", len(stats.Languages))))
	}

	rpt.WriteText(out)

	if f.jsonOut != "" {
		if werr := writeJSONReport(rpt, f.jsonOut); werr != nil {
			return werr
		}
	}

	return err
}

func writeJSONReport(r *report.Report, path string) error {
	if path == "-" {
		return r.WriteJSON(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.WriteJSON(f)
}
