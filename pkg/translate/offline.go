package translate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wasmerio/wasmer-go/wasmer"
	"go.uber.org/zap"
)

// OfflineProvider drives a per-language-pair WASM-compiled translation
// model executed inside the Wasmer runtime. If the model for a pair is
// absent and auto-download is disabled (or fails), every segment passes
// through unchanged with a warning, per §4.D.
type OfflineProvider struct {
	modelDir     string
	autoDownload bool
	logger       *zap.Logger
	models       map[string]*wasmModel
}

type wasmModel struct {
	instance      *wasmer.Instance
	translateMany wasmer.NativeFunction
}

func NewOfflineProvider(modelDir string, autoDownload bool, logger *zap.Logger) (*OfflineProvider, error) {
	return &OfflineProvider{
		modelDir:     modelDir,
		autoDownload: autoDownload,
		logger:       safeLogger(logger),
		models:       make(map[string]*wasmModel),
	}, nil
}

func modelPairKey(src, tgt string) string { return src + "_" + tgt }

func (p *OfflineProvider) loadModel(src, tgt string) (*wasmModel, error) {
	key := modelPairKey(src, tgt)
	if m, ok := p.models[key]; ok {
		return m, nil
	}

	path := filepath.Join(p.modelDir, key+".wasm")
	data, err := os.ReadFile(path)
	if err != nil && p.autoDownload {
		if derr := p.downloadModel(src, tgt, path); derr == nil {
			data, err = os.ReadFile(path)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("model %s not available: %w", key, err)
	}

	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, data)
	if err != nil {
		return nil, fmt.Errorf("compiling model %s: %w", key, err)
	}

	importObject := wasmer.NewImportObject()
	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, fmt.Errorf("instantiating model %s: %w", key, err)
	}

	fn, err := instance.Exports.GetFunction("translate_many")
	if err != nil {
		return nil, fmt.Errorf("model %s missing translate_many export: %w", key, err)
	}

	m := &wasmModel{instance: instance, translateMany: fn}
	p.models[key] = m
	return m, nil
}

// downloadModel has no configured source in this deployment; auto_download
// is advisory per §4.D, not a guarantee.
func (p *OfflineProvider) downloadModel(_, _, _ string) error {
	return fmt.Errorf("no model source configured for auto-download")
}

func (p *OfflineProvider) TranslateMany(_ context.Context, items []BatchItem, src, tgt string) ([]string, error) {
	model, err := p.loadModel(src, tgt)
	if err != nil {
		p.logger.Warn("offline model unavailable, passing segments through unchanged",
			zap.String("pair", modelPairKey(src, tgt)), zap.Error(err))
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Text
		}
		return out, nil
	}

	out := make([]string, len(items))
	for i, item := range items {
		translated, err := p.callModel(model, item.Text)
		if err != nil {
			p.logger.Error("offline model call failed for segment", zap.Int("index", i), zap.Error(err))
			translated = item.Text
		}
		out[i] = translated
	}
	return out, nil
}

func (p *OfflineProvider) TranslateOne(ctx context.Context, text, src, tgt string) (string, error) {
	res, err := p.TranslateMany(ctx, []BatchItem{{Text: text}}, src, tgt)
	if err != nil {
		return text, err
	}
	return res[0], nil
}

func (p *OfflineProvider) callModel(m *wasmModel, text string) (string, error) {
	result, err := m.translateMany(text)
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("model returned a non-string result")
	}
	return s, nil
}

func (p *OfflineProvider) SupportedLanguages() []string {
	return defaultSupportedLanguages
}
