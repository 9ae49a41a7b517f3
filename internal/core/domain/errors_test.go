package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrExtraction", ErrExtraction},
		{"ErrClassification", ErrClassification},
		{"ErrEmbedding", ErrEmbedding},
		{"ErrFilter", ErrFilter},
		{"ErrIndex", ErrIndex},
		{"ErrInvalidPageRange", ErrInvalidPageRange},
		{"ErrNoText", ErrNoText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestPipelineErrors_AreDistinct(t *testing.T) {
	kinds := []error{ErrExtraction, ErrClassification, ErrEmbedding, ErrFilter, ErrIndex}
	for i, a := range kinds {
		for j, b := range kinds {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestStageError(t *testing.T) {
	cause := fmt.Errorf("%w: %w", ErrExtraction, ErrInvalidPageRange)
	err := &StageError{Stage: StageExtracted, URI: "/docs/a.pdf", Err: cause}

	assert.Equal(t, "/docs/a.pdf: extracted: extraction failure: invalid page range", err.Error())
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.True(t, errors.Is(err, ErrInvalidPageRange))
	assert.False(t, errors.Is(err, ErrEmbedding))

	wrapped := fmt.Errorf("process: %w", err)
	assert.Equal(t, StageExtracted, FailedStage(wrapped))
}

func TestFailedStage_NoStageInfo(t *testing.T) {
	assert.Equal(t, StageFailed, FailedStage(errors.New("boom")))
	assert.Equal(t, StageFailed, FailedStage(nil))
}
