// Package length provides an offline classifier that scores text by word
// count.
package length

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.Classifier = (*Classifier)(nil)

// DefaultTargetWords is the word count at which the score reaches 1.
const DefaultTargetWords = 40

// Classifier scores text as min(1, words/target).
type Classifier struct {
	target int
}

// NewClassifier creates a length classifier. Non-positive targets use the
// default.
func NewClassifier(targetWords int) *Classifier {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}
	return &Classifier{target: targetWords}
}

// Score returns the fraction of the target word count reached by text.
func (c *Classifier) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	words := len(strings.Fields(text))
	return min(1, float64(words)/float64(c.target)), nil
}
