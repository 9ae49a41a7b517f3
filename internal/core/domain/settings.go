package domain

const unknownDescription = "Unknown"

// AIProvider identifies a model provider for classification or embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLength is the offline length-based classifier.
	AIProviderLength AIProvider = "length"
)

// IsValid returns true if the provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLength:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderLength:
		return "Length heuristic (offline)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendMemory keeps vectors in process memory.
	IndexBackendMemory IndexBackend = "memory"

	// IndexBackendSQLite persists vectors next to the document store.
	IndexBackendSQLite IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendMemory || b == IndexBackendSQLite
}

// OutputFormat selects the batch export encoding.
type OutputFormat string

// Available output formats.
const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// IsValid returns true if the format is recognised.
func (f OutputFormat) IsValid() bool {
	return f == OutputFormatJSON || f == OutputFormatYAML
}

// SegmenterSettings configures the classifier-driven segmenter.
type SegmenterSettings struct {
	// Threshold is the score above which the buffer is committed.
	Threshold float64

	// BoundaryPattern splits text into sentence units. Capture group 1
	// is the terminator kept with the preceding unit.
	BoundaryPattern string

	// DuplicateTail re-appends the last candidate after the tail flush.
	DuplicateTail bool
}

// FilterSettings configures the segment filter.
type FilterSettings struct {
	// MinLexicalRatio is the exclusive lower bound for the lexical ratio.
	MinLexicalRatio float64

	// MaxStopwordRatio is the inclusive upper bound for the stop-word ratio.
	MaxStopwordRatio float64

	// VocabularyPath is an optional word list deciding HasVector.
	VocabularyPath string

	// Dedupe drops repeated chunk texts after filtering.
	Dedupe bool
}

// ClassifierSettings holds classifier provider configuration.
type ClassifierSettings struct {
	// Provider is the classifier backend.
	Provider AIProvider

	// Model is the generation model (for Ollama).
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// TargetWords is the word count at which the length classifier saturates.
	TargetWords int

	// RequestsPerSecond limits classifier calls. Zero disables limiting.
	RequestsPerSecond float64
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int

	// RequestsPerSecond limits embedding calls. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderLength {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return e.Model != "" && e.Dimensions > 0
}

// PipelineSettings configures directory batches.
type PipelineSettings struct {
	// Concurrency is the number of documents processed in parallel.
	Concurrency int

	// Recursive descends into subdirectories.
	Recursive bool
}

// Settings holds all application settings.
type Settings struct {
	Segmenter  SegmenterSettings
	Filter     FilterSettings
	Classifier ClassifierSettings
	Embedding  EmbeddingSettings
	Pipeline   PipelineSettings

	// IndexBackend selects the vector index.
	IndexBackend IndexBackend

	// DataDir holds the SQLite database. Empty means ~/.sercha-ingest/data.
	DataDir string

	// OutputFormat is the batch export encoding.
	OutputFormat OutputFormat

	// OutputDir is where the batch export is written.
	OutputDir string
}

// DefaultBoundaryPattern splits after . ! ? or , followed by whitespace.
const DefaultBoundaryPattern = `([.!?,])\s+`

// DefaultSettings returns settings with sensible defaults.
// The defaults run fully offline except for embeddings, which use a
// local Ollama instance.
func DefaultSettings() Settings {
	return Settings{
		Segmenter: SegmenterSettings{
			Threshold:       0.1,
			BoundaryPattern: DefaultBoundaryPattern,
			DuplicateTail:   false,
		},
		Filter: FilterSettings{
			MinLexicalRatio:  0.6,
			MaxStopwordRatio: 0.2,
		},
		Classifier: ClassifierSettings{
			Provider:    AIProviderLength,
			Model:       "llama3.2:3b",
			BaseURL:     "http://localhost:11434",
			TargetWords: 40,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		Pipeline: PipelineSettings{
			Concurrency: 1,
		},
		IndexBackend: IndexBackendMemory,
		OutputFormat: OutputFormatJSON,
		OutputDir:    ".",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// ProcessorConfig converts segmenter and filter settings into the generic
// maps consumed by the post-processor registry.
func (s Settings) ProcessorConfig(name string) map[string]any {
	switch name {
	case "segmenter":
		return map[string]any{
			"threshold":        s.Segmenter.Threshold,
			"boundary_pattern": s.Segmenter.BoundaryPattern,
			"duplicate_tail":   s.Segmenter.DuplicateTail,
		}
	case "filter":
		return map[string]any{
			"min_lexical_ratio":  s.Filter.MinLexicalRatio,
			"max_stopword_ratio": s.Filter.MaxStopwordRatio,
		}
	default:
		return nil
	}
}
