package cli

import (
	"errors"
	"fmt"

	ollamaclassifier "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/classifier/ollama"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/classifier/length"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/config/file"
	ollamaembedding "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/embedding/ollama"
	openaiembedding "github.com/custodia-labs/sercha-ingest/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/lexicon"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/services"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/cleaner"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-ingest/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/filter"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/segmenter"
)

// app holds the wired services and the resources to release.
type app struct {
	pipeline  *services.DocumentPipeline
	search    *services.SearchService
	documents *services.DocumentService
	watch     *services.WatchService

	closers []func() error
}

// Close releases every resource in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// wire builds the services from settings. promptDir may be empty for the
// default prompt location.
func wire(s domain.Settings, promptDir string) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		_ = a.Close()
		return nil, err
	}

	classifier, err := newClassifier(s.Classifier, promptDir)
	if err != nil {
		return fail(err)
	}

	annotator, err := newAnnotator(s.Filter)
	if err != nil {
		return fail(err)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry, postprocessors.Dependencies{
		Classifier: classifier,
		Annotator:  annotator,
	})
	seg, err := registry.Build(segmenter.Name, s.ProcessorConfig(segmenter.Name))
	if err != nil {
		return fail(fmt.Errorf("build segmenter: %w", err))
	}
	refineNames := []string{filter.Name}
	if s.Filter.Dedupe {
		refineNames = append(refineNames, filter.DedupeName)
	}
	refiner, err := registry.BuildPipeline(refineNames, s.ProcessorConfig)
	if err != nil {
		return fail(fmt.Errorf("build filter: %w", err))
	}

	embedder, err := newEmbedder(s.Embedding)
	if err != nil {
		return fail(err)
	}
	if embedder != nil {
		a.closers = append(a.closers, embedder.Close)
	}

	docStore, index, err := a.openStores(s, embedder)
	if err != nil {
		return fail(err)
	}

	extractors := normalisers.NewRegistry(plaintext.New(), pdf.New())
	a.pipeline = services.NewDocumentPipeline(
		extractors,
		cleaner.New(),
		seg,
		refiner,
		embedder,
		index,
		docStore,
		services.WithConcurrency(s.Pipeline.Concurrency),
		services.WithRecursive(s.Pipeline.Recursive),
	)
	a.search = services.NewSearchService(docStore, index, embedder)
	a.documents = services.NewDocumentService(docStore, index)
	a.watch = services.NewWatchService(a.pipeline, docStore, s.Pipeline.Recursive)

	logger.Debug("wired classifier=%s embedding=%s index=%s", s.Classifier.Provider, s.Embedding.Provider, s.IndexBackend)
	return a, nil
}

// openStores opens the document store and, when embeddings are available,
// the vector index of the configured backend.
func (a *app) openStores(s domain.Settings, embedder driven.EmbeddingService) (driven.DocumentStore, driven.VectorIndex, error) {
	var index driven.VectorIndex

	if s.IndexBackend == domain.IndexBackendSQLite {
		store, err := sqlite.NewStore(s.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if embedder != nil {
			vi, err := store.VectorIndex(embedder.Dimensions())
			if err != nil {
				return nil, nil, err
			}
			index = vi
		}
		return store.DocumentStore(), index, nil
	}

	if embedder != nil {
		vi, err := flat.New(embedder.Dimensions())
		if err != nil {
			return nil, nil, err
		}
		index = vi
	}
	return memory.NewDocumentStore(), index, nil
}

func newClassifier(cfg domain.ClassifierSettings, promptDir string) (driven.Classifier, error) {
	var classifier driven.Classifier

	switch cfg.Provider {
	case domain.AIProviderOllama:
		c, err := ollamaclassifier.NewClassifier(ollamaclassifier.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama classifier: %w", err)
		}
		prompts, err := file.NewPromptStore(promptDir)
		if err != nil {
			logger.Warn("prompt store unavailable, using built-in prompt: %v", err)
		} else {
			c.SetPromptStore(prompts)
		}
		classifier = c
	default:
		classifier = length.NewClassifier(cfg.TargetWords)
	}

	return ratelimit.WrapClassifier(classifier, cfg.RequestsPerSecond), nil
}

func newAnnotator(cfg domain.FilterSettings) (driven.LexicalAnnotator, error) {
	var opts []lexicon.Option
	if cfg.VocabularyPath != "" {
		words, err := lexicon.LoadVocabulary(cfg.VocabularyPath)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		opts = append(opts, lexicon.WithVocabulary(words))
	}
	return lexicon.New(opts...), nil
}

// newEmbedder returns nil when embeddings are not configured; chunks are
// then stored without vectors and search is unavailable.
func newEmbedder(cfg domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !cfg.IsConfigured() {
		logger.Warn("embedding provider %q is not configured; chunks will not be indexed", cfg.Provider)
		return nil, nil
	}

	var embedder driven.EmbeddingService
	switch cfg.Provider {
	case domain.AIProviderOpenAI:
		e, err := openaiembedding.NewEmbeddingService(openaiembedding.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}
		embedder = e
	default:
		e, err := ollamaembedding.NewEmbeddingService(ollamaembedding.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		embedder = e
	}

	return ratelimit.WrapEmbedding(embedder, cfg.RequestsPerSecond), nil
}
