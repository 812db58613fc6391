package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scormtr/scormtr/pkg/translate"
)

// fileConfig is the on-disk shape for --config, covering the provider
// settings §10.3 says must be passed by value rather than read from
// globals at call time.
type fileConfig struct {
	Provider struct {
		Kind         string  `yaml:"kind"`
		ModelDir     string  `yaml:"model_dir"`
		AutoDownload bool    `yaml:"auto_download"`
		APIKey       string  `yaml:"api_key"`
		Model        string  `yaml:"model"`
		MaxBatch     int     `yaml:"max_batch"`
		MaxTokens    int     `yaml:"max_tokens"`
		Temperature  float64 `yaml:"temperature"`
	} `yaml:"provider"`
	NormalizeFilenames bool `yaml:"normalize_filenames"`
	Concurrency        int  `yaml:"concurrency"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

func (c fileConfig) providerConfig() translate.ProviderConfig {
	return translate.ProviderConfig{
		Kind:         translate.Kind(c.Provider.Kind),
		ModelDir:     c.Provider.ModelDir,
		AutoDownload: c.Provider.AutoDownload,
		APIKey:       c.Provider.APIKey,
		Model:        c.Provider.Model,
		MaxBatch:     c.Provider.MaxBatch,
		MaxTokens:    c.Provider.MaxTokens,
		Temperature:  c.Provider.Temperature,
	}
}
