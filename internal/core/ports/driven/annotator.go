package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// LexicalAnnotator tokenizes text and flags each token.
// The segment filter depends only on this interface so that its policy
// stays independent of any NLP backend.
type LexicalAnnotator interface {
	// Annotate returns the tokens of text in order.
	Annotate(ctx context.Context, text string) ([]domain.Token, error)
}
