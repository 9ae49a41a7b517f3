// Package filter decides which text segments are meaningful language.
//
// A segment is admitted when most of its words are known vocabulary and
// few of them are stop-words. Token classification is delegated to a
// LexicalAnnotator.
package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Default policy thresholds.
const (
	DefaultMinLexicalRatio  = 0.6
	DefaultMaxStopwordRatio = 0.2
)

// Filter applies the language and stop-word policies.
type Filter struct {
	annotator        driven.LexicalAnnotator
	minLexicalRatio  float64
	maxStopwordRatio float64
}

// Option configures a Filter.
type Option func(*Filter)

// WithMinLexicalRatio sets the exclusive lower bound on the lexical ratio.
func WithMinLexicalRatio(ratio float64) Option {
	return func(f *Filter) {
		f.minLexicalRatio = ratio
	}
}

// WithMaxStopwordRatio sets the inclusive upper bound on the stop-word ratio.
func WithMaxStopwordRatio(ratio float64) Option {
	return func(f *Filter) {
		f.maxStopwordRatio = ratio
	}
}

// New creates a filter backed by annotator.
func New(annotator driven.LexicalAnnotator, opts ...Option) *Filter {
	f := &Filter{
		annotator:        annotator,
		minLexicalRatio:  DefaultMinLexicalRatio,
		maxStopwordRatio: DefaultMaxStopwordRatio,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LanguageFilter admits a segment when the share of its word tokens that
// have a lexical vector exceeds the minimum ratio. Word tokens are
// alphabetic, not number-like and not punctuation.
func (f *Filter) LanguageFilter(ctx context.Context, segment string) (bool, error) {
	if strings.TrimSpace(segment) == "" {
		return false, nil
	}

	tokens, err := f.annotate(ctx, segment)
	if err != nil {
		return false, err
	}

	var words, known int
	for _, t := range tokens {
		if !t.IsAlpha || t.LikeNum || t.IsPunct {
			continue
		}
		words++
		if t.HasVector {
			known++
		}
	}
	if words == 0 {
		return false, nil
	}

	return float64(known)/float64(words) > f.minLexicalRatio, nil
}

// StopwordFilter admits a segment when the share of stop-words among its
// alphabetic tokens is at most the maximum ratio.
func (f *Filter) StopwordFilter(ctx context.Context, segment string) (bool, error) {
	tokens, err := f.annotate(ctx, segment)
	if err != nil {
		return false, err
	}

	var alpha, stop int
	for _, t := range tokens {
		if !t.IsAlpha {
			continue
		}
		alpha++
		if t.IsStop {
			stop++
		}
	}
	if alpha == 0 {
		return false, nil
	}

	return float64(stop)/float64(alpha) <= f.maxStopwordRatio, nil
}

// Admit trims segment and applies both filters. It returns the trimmed
// text, whether it survives and the reason when it does not.
func (f *Filter) Admit(ctx context.Context, segment string) (string, bool, error) {
	trimmed := strings.TrimSpace(segment)
	if trimmed == "" {
		return "", false, nil
	}

	ok, err := f.LanguageFilter(ctx, trimmed)
	if err != nil || !ok {
		return trimmed, false, err
	}

	ok, err = f.StopwordFilter(ctx, trimmed)
	if err != nil || !ok {
		return trimmed, false, err
	}

	return trimmed, true, nil
}

// FilterSegments returns the trimmed segments that pass both filters, in
// their original order. A segment whose evaluation fails is logged and
// dropped; the remaining segments are still evaluated.
func (f *Filter) FilterSegments(ctx context.Context, segments []string) []string {
	kept := make([]string, 0, len(segments))
	for i, seg := range segments {
		trimmed, ok, err := f.Admit(ctx, seg)
		if err != nil {
			logger.Warn("filter: dropping segment %d: %v", i, err)
			continue
		}
		if ok {
			kept = append(kept, trimmed)
		}
	}
	return kept
}

func (f *Filter) annotate(ctx context.Context, segment string) ([]domain.Token, error) {
	tokens, err := f.annotator.Annotate(ctx, segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFilter, err)
	}
	return tokens, nil
}
