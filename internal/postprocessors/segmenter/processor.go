// Package segmenter provides the classifier-driven chunk segmenter.
//
// Text is split into sentence-like units. Units accumulate in a buffer and
// after each append the joined buffer is scored by a classifier; a score
// above the threshold commits the buffer as a chunk.
package segmenter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultThreshold is the score above which a candidate becomes a chunk.
const DefaultThreshold = 0.1

// Name is the registry name of the segmenter.
const Name = "segmenter"

// Processor splits document content into classifier-delimited chunks.
// It implements the PostProcessor interface.
type Processor struct {
	classifier    driven.Classifier
	threshold     float64
	boundary      *regexp.Regexp
	duplicateTail bool
}

// Option configures the segmenter.
type Option func(*Processor)

// WithThreshold sets the commit threshold.
func WithThreshold(threshold float64) Option {
	return func(p *Processor) {
		p.threshold = threshold
	}
}

// WithBoundaryPattern sets the unit boundary. Capture group 1, when
// present, stays with the preceding unit.
func WithBoundaryPattern(re *regexp.Regexp) Option {
	return func(p *Processor) {
		if re != nil {
			p.boundary = re
		}
	}
}

// WithDuplicateTail re-emits the last scored candidate after the tail
// flush.
func WithDuplicateTail(enabled bool) Option {
	return func(p *Processor) {
		p.duplicateTail = enabled
	}
}

// New creates a segmenter that scores candidates with classifier.
func New(classifier driven.Classifier, opts ...Option) *Processor {
	p := &Processor{
		classifier: classifier,
		threshold:  DefaultThreshold,
		boundary:   regexp.MustCompile(domain.DefaultBoundaryPattern),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process segments the document content.
// Input chunks are ignored; this processor creates chunks from content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	texts, scores, err := p.Segment(ctx, doc.Content)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    text,
			Position:   i,
			Score:      scores[i],
			Metadata:   make(map[string]any),
		})
	}

	logger.Debug("segmenter: %s produced %d chunks", doc.URI, len(chunks))
	return chunks, nil
}

// Segment returns the chunk texts of text in source order with the score
// of each. A tail chunk flushed without crossing the threshold carries the
// score of its last evaluation.
func (p *Processor) Segment(ctx context.Context, text string) ([]string, []float64, error) {
	units := p.Units(text)
	if len(units) == 0 {
		return nil, nil, nil
	}

	var (
		chunks    []string
		scores    []float64
		buffer    []string
		candidate string
		score     float64
	)

	for _, unit := range units {
		buffer = append(buffer, unit)
		candidate = strings.Join(buffer, " ")

		s, err := p.classifier.Score(ctx, candidate)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrClassification, err)
		}
		score = s

		if score > p.threshold {
			chunks = append(chunks, candidate)
			scores = append(scores, score)
			buffer = buffer[:0]
		}
	}

	if len(buffer) > 0 {
		chunks = append(chunks, strings.Join(buffer, " "))
		scores = append(scores, score)
	}
	if p.duplicateTail {
		chunks = append(chunks, candidate)
		scores = append(scores, score)
	}

	return chunks, scores, nil
}

// Units splits text at the boundary pattern. Units are trimmed and empty
// units are dropped.
func (p *Processor) Units(text string) []string {
	var units []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			units = append(units, s)
		}
	}

	start := 0
	for _, m := range p.boundary.FindAllStringSubmatchIndex(text, -1) {
		end := m[0]
		if len(m) >= 4 && m[3] >= 0 {
			end = m[3]
		}
		add(text[start:end])
		start = m[1]
	}
	add(text[start:])

	return units
}
