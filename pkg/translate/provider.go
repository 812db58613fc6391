// Package translate implements the polymorphic translation-provider
// abstraction of §4.D: online MT, offline MT, and LLM-batch backends
// behind one interface, with batching, retry, circuit-breaking, and the
// partial-failure tolerance the pipeline depends on.
package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BatchItem is one unit of work in a TranslateMany call. Context and
// Kind carry the surrounding-element and content-model hints the LLM
// batch prompt's per-segment (id, text, context, kind) tuple needs per
// §4.D; providers that don't need them (online/offline MT) simply
// ignore the fields and translate Text.
type BatchItem struct {
	Text    string
	Context string
	Kind    string
}

// Provider is the capability set every translation backend implements.
type Provider interface {
	TranslateMany(ctx context.Context, items []BatchItem, src, tgt string) ([]string, error)
	TranslateOne(ctx context.Context, text, src, tgt string) (string, error)
	SupportedLanguages() []string
}

// defaultSupportedLanguages mirrors providers/base.py's fixed ISO list.
var defaultSupportedLanguages = []string{
	"es", "en", "fr", "de", "it", "pt", "nl", "pl", "zh", "ja", "ru", "ar",
}

// Kind selects which concrete Provider New builds.
type Kind string

const (
	OnlineMT  Kind = "online_mt"
	OfflineMT Kind = "offline_mt"
	LLM       Kind = "llm"
)

// ProviderConfig is the value-typed, externally supplied configuration
// for one provider instance — no global settings object, per §10.3.
type ProviderConfig struct {
	Kind Kind

	// offline_mt
	AutoDownload bool
	ModelDir     string

	// llm
	APIKey      string
	Model       string
	MaxBatch    int
	MaxTokens   int
	Temperature float64
}

// New builds the concrete Provider named by cfg.Kind.
func New(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	logger = safeLogger(logger)
	switch cfg.Kind {
	case OnlineMT:
		return NewOnlineProvider(logger), nil
	case OfflineMT:
		return NewOfflineProvider(cfg.ModelDir, cfg.AutoDownload, logger)
	case LLM:
		return NewLLMProvider(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

func safeLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
