package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// LLMProvider packs up to maxBatch segments into one JSON-shaped prompt
// per §4.D, retries transient failures with exponential backoff, and
// trips a circuit breaker after repeated consecutive failures so a
// struggling endpoint doesn't get hammered batch after batch.
type LLMProvider struct {
	client      *genai.Client
	model       string
	maxBatch    int
	maxTokens   int32
	temperature float32
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

func NewLLMProvider(cfg ProviderConfig, logger *zap.Logger) (*LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm provider requires an api key")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 || maxBatch > 50 {
		maxBatch = 50
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "llm-translate",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &LLMProvider{
		client:      client,
		model:       model,
		maxBatch:    maxBatch,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
		breaker:     breaker,
		logger:      safeLogger(logger),
	}, nil
}

// llmRequestItem is the per-segment (id, text, context, kind) tuple
// §4.D's LLM batch prompt requires: context names the surrounding
// element (so the model doesn't translate a button label as prose) and
// kind names the content model the text came from.
type llmRequestItem struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type llmResponseItem struct {
	ID          int    `json:"id"`
	Translation string `json:"translation"`
}

func (p *LLMProvider) TranslateMany(ctx context.Context, batchItems []BatchItem, src, tgt string) ([]string, error) {
	if len(batchItems) == 0 {
		return nil, nil
	}
	if len(batchItems) > p.maxBatch {
		out := make([]string, 0, len(batchItems))
		for start := 0; start < len(batchItems); start += p.maxBatch {
			res, err := p.TranslateMany(ctx, batchItems[start:min(start+p.maxBatch, len(batchItems))], src, tgt)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
		}
		return out, nil
	}

	out := make([]string, len(batchItems))
	for i, item := range batchItems {
		out[i] = item.Text
	}

	items := make([]llmRequestItem, len(batchItems))
	for i, b := range batchItems {
		items[i] = llmRequestItem{ID: i, Text: b.Text, Context: b.Context, Kind: b.Kind}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return out, nil
	}

	prompt := fmt.Sprintf(
		"Translate each \"text\" field below from %s to %s, using \"context\" and \"kind\" to judge register and whether markup may appear. "+
			"Preserve any inline HTML markup untouched. "+
			"Respond with only a JSON array of {\"id\":int,\"translation\":string} objects, one per input item.\n\n%s",
		src, tgt, string(payload),
	)

	var raw string
	attempt := func() error {
		result, err := p.breaker.Execute(func() (interface{}, error) {
			return p.callModel(ctx, prompt)
		})
		if err != nil {
			return err
		}
		raw = result.(string)
		return nil
	}

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = time.Second
	boff.MaxInterval = 10 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(boff, 2), ctx) // 1 try + 2 retries = 3 attempts

	if err := backoff.Retry(attempt, policy); err != nil {
		p.logger.Error("llm batch failed after retries, passing originals through", zap.Error(err))
		return out, nil
	}

	parsed, err := parseLLMResponse(raw)
	if err != nil {
		p.logger.Error("llm response parse failed, passing originals through", zap.Error(err))
		return out, nil
	}

	for _, item := range parsed {
		if item.ID >= 0 && item.ID < len(out) {
			out[item.ID] = item.Translation
		}
	}
	return out, nil
}

func (p *LLMProvider) TranslateOne(ctx context.Context, text, src, tgt string) (string, error) {
	res, err := p.TranslateMany(ctx, []BatchItem{{Text: text}}, src, tgt)
	if err != nil {
		return text, err
	}
	return res[0], nil
}

func (p *LLMProvider) callModel(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     &p.temperature,
		MaxOutputTokens: p.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

func parseLLMResponse(raw string) ([]llmResponseItem, error) {
	body := raw
	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		body = m[1]
	}
	body = strings.TrimSpace(body)

	var items []llmResponseItem
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("parsing llm json response: %w", err)
	}
	return items, nil
}

func (p *LLMProvider) SupportedLanguages() []string {
	return defaultSupportedLanguages
}
