package translate

import (
	"context"
	"testing"

	"github.com/scormtr/scormtr/pkg/extract"
	"github.com/stretchr/testify/require"
)

type mapProvider struct {
	table map[string]string
}

func (p mapProvider) TranslateMany(_ context.Context, items []BatchItem, _, _ string) ([]string, error) {
	out := make([]string, len(items))
	for i, item := range items {
		if v, ok := p.table[item.Text]; ok {
			out[i] = v
		} else {
			out[i] = item.Text
		}
	}
	return out, nil
}

func (p mapProvider) TranslateOne(_ context.Context, text, _, _ string) (string, error) {
	if v, ok := p.table[text]; ok {
		return v, nil
	}
	return text, nil
}

func (p mapProvider) SupportedLanguages() []string { return defaultSupportedLanguages }

func TestTranslateSegmentsPlainText(t *testing.T) {
	provider := mapProvider{table: map[string]string{"Hola mundo": "Hello world"}}
	segs := []extract.Segment{{ID: "s1", Original: "Hola mundo", Kind: extract.HTMLText}}

	out, err := TranslateSegments(context.Background(), provider, segs, "es", "en", nil)
	require.NoError(t, err)
	require.Equal(t, "Hello world", out["s1"])
}

func TestTranslateSegmentsHTMLAware(t *testing.T) {
	provider := mapProvider{table: map[string]string{"Hi": "Hola"}}
	segs := []extract.Segment{{ID: "s1", Original: "<p>Hi</p>", IsHTML: true, Kind: extract.RiseJSON}}

	out, err := TranslateSegments(context.Background(), provider, segs, "en", "es", nil)
	require.NoError(t, err)
	require.Equal(t, "<p>Hola</p>", out["s1"])
}

func TestTranslateSegmentsPartialFailureFallsBackToOriginal(t *testing.T) {
	provider := mapProvider{table: map[string]string{}}
	segs := []extract.Segment{{ID: "s1", Original: "Untranslatable"}}

	out, err := TranslateSegments(context.Background(), provider, segs, "es", "en", nil)
	require.NoError(t, err)
	require.Equal(t, "Untranslatable", out["s1"])
}
