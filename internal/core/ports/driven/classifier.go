package driven

import "context"

// Classifier scores candidate chunk text for the segmenter.
// A high score signals that the candidate is a finished semantic unit.
type Classifier interface {
	// Score returns a value in [0,1] for the given text.
	// Errors are fatal for the document being segmented.
	Score(ctx context.Context, text string) (float64, error)
}
