package model

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SegmenterConfig controls chunk segmentation
type SegmenterConfig struct {
	// Word budgets; token counts are approximated as words * TokensPerWord
	MaxWords      int     `json:"max_words" yaml:"max_words"`
	MinWords      int     `json:"min_words" yaml:"min_words"`
	OverlapWords  int     `json:"overlap_words" yaml:"overlap_words"`
	TokensPerWord float64 `json:"tokens_per_word" yaml:"tokens_per_word"`
}

// DefaultSegmenterConfig returns a sensible default configuration
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		MaxWords:      800,
		MinWords:      400,
		OverlapWords:  100,
		TokensPerWord: 1.3,
	}
}

// RetrievalConfig controls candidate fetching, fusion and selection
type RetrievalConfig struct {
	TopK          int     `json:"top_k" yaml:"top_k"`
	MaxCandidates int     `json:"max_candidates" yaml:"max_candidates"`
	RRFK          float64 `json:"rrf_k" yaml:"rrf_k"`
	UsagePenalty  float64 `json:"usage_penalty" yaml:"usage_penalty"`
	MMRLambda     float64 `json:"mmr_lambda" yaml:"mmr_lambda"`
	// Per-side timeout for lexical/vector candidate fetches; on timeout the
	// failing side contributes an empty candidate set.
	SideTimeout time.Duration `json:"side_timeout" yaml:"side_timeout"`
}

// DefaultRetrievalConfig returns a sensible default configuration
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:          5,
		MaxCandidates: 40,
		RRFK:          60,
		UsagePenalty:  0.85,
		MMRLambda:     0.7,
		SideTimeout:   10 * time.Second,
	}
}

// Config is the root tuning configuration, loadable from a YAML file
type Config struct {
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// LoadConfig reads a YAML config from path. Missing or zero-valued fields
// fall back to defaults; a missing file returns defaults entirely.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Segmenter: DefaultSegmenterConfig(),
		Retrieval: DefaultRetrievalConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

func applyConfigDefaults(cfg *Config) {
	def := DefaultSegmenterConfig()
	if cfg.Segmenter.MaxWords <= 0 {
		cfg.Segmenter.MaxWords = def.MaxWords
	}
	if cfg.Segmenter.MinWords <= 0 {
		cfg.Segmenter.MinWords = def.MinWords
	}
	if cfg.Segmenter.OverlapWords <= 0 {
		cfg.Segmenter.OverlapWords = def.OverlapWords
	}
	if cfg.Segmenter.TokensPerWord <= 0 {
		cfg.Segmenter.TokensPerWord = def.TokensPerWord
	}

	defRetrieval := DefaultRetrievalConfig()
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = defRetrieval.TopK
	}
	if cfg.Retrieval.MaxCandidates <= 0 {
		cfg.Retrieval.MaxCandidates = defRetrieval.MaxCandidates
	}
	if cfg.Retrieval.RRFK <= 0 {
		cfg.Retrieval.RRFK = defRetrieval.RRFK
	}
	if cfg.Retrieval.UsagePenalty <= 0 || cfg.Retrieval.UsagePenalty > 1 {
		cfg.Retrieval.UsagePenalty = defRetrieval.UsagePenalty
	}
	if cfg.Retrieval.MMRLambda <= 0 || cfg.Retrieval.MMRLambda > 1 {
		cfg.Retrieval.MMRLambda = defRetrieval.MMRLambda
	}
	if cfg.Retrieval.SideTimeout <= 0 {
		cfg.Retrieval.SideTimeout = defRetrieval.SideTimeout
	}
}
