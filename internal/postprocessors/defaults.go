package postprocessors

import (
	"fmt"
	"regexp"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/filter"
	"github.com/custodia-labs/sercha-ingest/internal/postprocessors/segmenter"
)

// Dependencies are the collaborators injected into built-in processors.
type Dependencies struct {
	Classifier driven.Classifier
	Annotator  driven.LexicalAnnotator
}

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry, deps Dependencies) {
	r.Register(segmenter.Name, func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildSegmenter(deps, cfg)
	})
	r.Register(filter.Name, func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildFilter(deps, cfg)
	})
	r.Register(filter.DedupeName, func(_ map[string]any) (driven.PostProcessor, error) {
		return filter.NewDedupe(), nil
	})
}

// buildSegmenter creates a segmenter from generic config.
// Supported config keys:
//   - threshold (float): commit threshold (default: 0.1)
//   - boundary_pattern (string): unit boundary regexp
//   - duplicate_tail (bool): re-emit the last candidate (default: false)
func buildSegmenter(deps Dependencies, cfg map[string]any) (driven.PostProcessor, error) {
	if deps.Classifier == nil {
		return nil, fmt.Errorf("segmenter: classifier is required")
	}

	var opts []segmenter.Option
	if v, ok := getFloatFromConfig(cfg, "threshold"); ok {
		opts = append(opts, segmenter.WithThreshold(v))
	}
	if pattern := getStringFromConfig(cfg, "boundary_pattern"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("segmenter: boundary_pattern: %w", err)
		}
		opts = append(opts, segmenter.WithBoundaryPattern(re))
	}
	if getBoolFromConfig(cfg, "duplicate_tail") {
		opts = append(opts, segmenter.WithDuplicateTail(true))
	}

	return segmenter.New(deps.Classifier, opts...), nil
}

// buildFilter creates a filter processor from generic config.
// Supported config keys:
//   - min_lexical_ratio (float): default 0.6
//   - max_stopword_ratio (float): default 0.2
func buildFilter(deps Dependencies, cfg map[string]any) (driven.PostProcessor, error) {
	if deps.Annotator == nil {
		return nil, fmt.Errorf("filter: annotator is required")
	}

	var opts []filter.Option
	if v, ok := getFloatFromConfig(cfg, "min_lexical_ratio"); ok {
		opts = append(opts, filter.WithMinLexicalRatio(v))
	}
	if v, ok := getFloatFromConfig(cfg, "max_stopword_ratio"); ok {
		opts = append(opts, filter.WithMaxStopwordRatio(v))
	}

	return filter.NewProcessor(filter.New(deps.Annotator, opts...)), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getFloatFromConfig extracts a float and reports whether the key held a
// number.
func getFloatFromConfig(cfg map[string]any, key string) (float64, bool) {
	switch v := cfg[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int, int64:
		return float64(getIntFromConfig(cfg, key)), true
	default:
		return 0, false
	}
}

func getBoolFromConfig(cfg map[string]any, key string) bool {
	v, _ := cfg[key].(bool)
	return v
}

func getStringFromConfig(cfg map[string]any, key string) string {
	v, _ := cfg[key].(string)
	return v
}
