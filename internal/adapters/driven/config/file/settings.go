package file

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeySegmenterThreshold       = "segmenter.threshold"
	KeySegmenterBoundaryPattern = "segmenter.boundary_pattern"
	KeySegmenterDuplicateTail   = "segmenter.duplicate_tail"
	KeyFilterMinLexicalRatio    = "filter.min_lexical_ratio"
	KeyFilterMaxStopwordRatio   = "filter.max_stopword_ratio"
	KeyFilterVocabularyPath     = "filter.vocabulary_path"
	KeyFilterDedupe             = "filter.dedupe"
	KeyClassifierProvider       = "classifier.provider"
	KeyClassifierModel          = "classifier.model"
	KeyClassifierBaseURL        = "classifier.base_url"
	KeyClassifierTargetWords    = "classifier.target_words"
	KeyClassifierRPS            = "classifier.requests_per_second"
	KeyEmbeddingProvider        = "embedding.provider"
	KeyEmbeddingModel           = "embedding.model"
	KeyEmbeddingBaseURL         = "embedding.base_url"
	KeyEmbeddingAPIKey          = "embedding.api_key"
	KeyEmbeddingDimensions      = "embedding.dimensions"
	KeyEmbeddingRPS             = "embedding.requests_per_second"
	KeyIndexBackend             = "index.backend"
	KeyStorageDataDir           = "storage.data_dir"
	KeyOutputFormat             = "output.format"
	KeyOutputDir                = "output.dir"
	KeyPipelineConcurrency      = "pipeline.concurrency"
	KeyPipelineRecursive        = "pipeline.recursive"
)

// Environment variables that override stored values.
const (
	EnvOllamaHost   = "OLLAMA_HOST"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Keys lists every recognised key in display order.
func Keys() []string {
	return []string{
		KeySegmenterThreshold, KeySegmenterBoundaryPattern, KeySegmenterDuplicateTail,
		KeyFilterMinLexicalRatio, KeyFilterMaxStopwordRatio, KeyFilterVocabularyPath, KeyFilterDedupe,
		KeyClassifierProvider, KeyClassifierModel, KeyClassifierBaseURL,
		KeyClassifierTargetWords, KeyClassifierRPS,
		KeyEmbeddingProvider, KeyEmbeddingModel, KeyEmbeddingBaseURL, KeyEmbeddingAPIKey,
		KeyEmbeddingDimensions, KeyEmbeddingRPS,
		KeyIndexBackend, KeyStorageDataDir,
		KeyOutputFormat, KeyOutputDir,
		KeyPipelineConcurrency, KeyPipelineRecursive,
	}
}

// IsKey reports whether key is recognised.
func IsKey(key string) bool {
	return slices.Contains(Keys(), key)
}

// ParseValue converts a command-line string into the type stored for key.
func ParseValue(key, raw string) (any, error) {
	if !IsKey(key) {
		return nil, fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, key)
	}

	switch key {
	case KeySegmenterDuplicateTail, KeyFilterDedupe, KeyPipelineRecursive:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects true or false", domain.ErrInvalidInput, key)
		}
		return v, nil
	case KeyClassifierTargetWords, KeyEmbeddingDimensions, KeyPipelineConcurrency:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		return v, nil
	case KeySegmenterThreshold, KeyFilterMinLexicalRatio, KeyFilterMaxStopwordRatio,
		KeyClassifierRPS, KeyEmbeddingRPS:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// LoadSettings overlays every configured key onto domain.DefaultSettings,
// then applies environment overrides. Unknown provider, backend and format
// names keep their defaults.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	s := domain.DefaultSettings()
	l := loader{store: store}

	l.float(KeySegmenterThreshold, &s.Segmenter.Threshold)
	l.string(KeySegmenterBoundaryPattern, &s.Segmenter.BoundaryPattern)
	l.bool(KeySegmenterDuplicateTail, &s.Segmenter.DuplicateTail)

	l.float(KeyFilterMinLexicalRatio, &s.Filter.MinLexicalRatio)
	l.float(KeyFilterMaxStopwordRatio, &s.Filter.MaxStopwordRatio)
	l.string(KeyFilterVocabularyPath, &s.Filter.VocabularyPath)
	l.bool(KeyFilterDedupe, &s.Filter.Dedupe)

	if p := domain.AIProvider(store.GetString(KeyClassifierProvider)); p.IsValid() && p != domain.AIProviderOpenAI {
		s.Classifier.Provider = p
	}
	l.string(KeyClassifierModel, &s.Classifier.Model)
	l.string(KeyClassifierBaseURL, &s.Classifier.BaseURL)
	l.int(KeyClassifierTargetWords, &s.Classifier.TargetWords)
	l.float(KeyClassifierRPS, &s.Classifier.RequestsPerSecond)

	if p := domain.AIProvider(store.GetString(KeyEmbeddingProvider)); p.IsValid() && p != domain.AIProviderLength {
		s.Embedding.Provider = p
	}
	modelSet := l.string(KeyEmbeddingModel, &s.Embedding.Model)
	l.string(KeyEmbeddingBaseURL, &s.Embedding.BaseURL)
	l.string(KeyEmbeddingAPIKey, &s.Embedding.APIKey)
	if !l.int(KeyEmbeddingDimensions, &s.Embedding.Dimensions) && modelSet {
		if dims, ok := domain.EmbeddingDimensions()[s.Embedding.Model]; ok {
			s.Embedding.Dimensions = dims
		}
	}
	l.float(KeyEmbeddingRPS, &s.Embedding.RequestsPerSecond)

	if b := domain.IndexBackend(store.GetString(KeyIndexBackend)); b.IsValid() {
		s.IndexBackend = b
	}
	l.string(KeyStorageDataDir, &s.DataDir)

	if f := domain.OutputFormat(store.GetString(KeyOutputFormat)); f.IsValid() {
		s.OutputFormat = f
	}
	l.string(KeyOutputDir, &s.OutputDir)

	l.int(KeyPipelineConcurrency, &s.Pipeline.Concurrency)
	l.bool(KeyPipelineRecursive, &s.Pipeline.Recursive)
	if s.Pipeline.Concurrency < 1 {
		s.Pipeline.Concurrency = 1
	}

	applyEnv(&s)
	return s
}

// applyEnv lets the environment win over the config file.
func applyEnv(s *domain.Settings) {
	if host := os.Getenv(EnvOllamaHost); host != "" {
		s.Classifier.BaseURL = host
		if s.Embedding.Provider == domain.AIProviderOllama {
			s.Embedding.BaseURL = host
		}
	}
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" && s.Embedding.Provider == domain.AIProviderOpenAI {
		s.Embedding.APIKey = key
	}
}

// loader copies present keys into settings fields.
// Each method reports whether the key was present with a usable type.
type loader struct {
	store driven.ConfigStore
}

func (l loader) string(key string, dst *string) bool {
	if v, ok := l.store.Get(key); ok {
		if str, ok := v.(string); ok {
			*dst = str
			return true
		}
	}
	return false
}

func (l loader) float(key string, dst *float64) bool {
	v, ok := l.store.Get(key)
	if !ok {
		return false
	}
	switch v.(type) {
	case float64, float32, int64, int:
		*dst = l.store.GetFloat(key)
		return true
	}
	return false
}

func (l loader) int(key string, dst *int) bool {
	v, ok := l.store.Get(key)
	if !ok {
		return false
	}
	switch v.(type) {
	case int64, int:
		*dst = l.store.GetInt(key)
		return true
	}
	return false
}

func (l loader) bool(key string, dst *bool) bool {
	if v, ok := l.store.Get(key); ok {
		if b, ok := v.(bool); ok {
			*dst = b
			return true
		}
	}
	return false
}
