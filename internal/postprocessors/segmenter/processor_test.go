package segmenter

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// scriptedClassifier returns scores from a function of the candidate.
type scriptedClassifier struct {
	score func(text string) float64
	err   error
	calls []string
}

func (c *scriptedClassifier) Score(_ context.Context, text string) (float64, error) {
	c.calls = append(c.calls, text)
	if c.err != nil {
		return 0, c.err
	}
	return c.score(text), nil
}

func constant(v float64) *scriptedClassifier {
	return &scriptedClassifier{score: func(string) float64 { return v }}
}

func TestNew_Defaults(t *testing.T) {
	p := New(constant(0))
	assert.Equal(t, DefaultThreshold, p.threshold)
	assert.Equal(t, domain.DefaultBoundaryPattern, p.boundary.String())
	assert.False(t, p.duplicateTail)
	assert.Equal(t, "segmenter", p.Name())
}

func TestUnits(t *testing.T) {
	p := New(constant(0))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace", "   \n ", nil},
		{"single", "No terminator here", []string{"No terminator here"}},
		{
			"terminators",
			"First one. Second, third! Fourth? Fifth",
			[]string{"First one.", "Second,", "third!", "Fourth?", "Fifth"},
		},
		{"no space after terminator", "3.14 is pi.", []string{"3.14 is pi."}},
		{"trailing terminator", "Done.  ", []string{"Done."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Units(tt.text))
		})
	}
}

func TestSegment_NeverExceedsThreshold(t *testing.T) {
	p := New(constant(0.1))

	chunks, scores, err := p.Segment(context.Background(), "A b. C d. E f.")
	require.NoError(t, err)
	assert.Equal(t, []string{"A b. C d. E f."}, chunks)
	assert.Equal(t, []float64{0.1}, scores)
}

func TestSegment_AlwaysExceedsThreshold(t *testing.T) {
	p := New(constant(0.9))

	chunks, _, err := p.Segment(context.Background(), "A b. C d. E f.")
	require.NoError(t, err)
	assert.Equal(t, []string{"A b.", "C d.", "E f."}, chunks)
}

func TestSegment_BufferAccumulates(t *testing.T) {
	// Commit once a candidate holds two units.
	c := &scriptedClassifier{score: func(text string) float64 {
		if strings.Count(text, ".") >= 2 {
			return 0.5
		}
		return 0.05
	}}
	p := New(c)

	chunks, scores, err := p.Segment(context.Background(), "One. Two. Three. Four. Five.")
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two.", "Three. Four.", "Five."}, chunks)
	assert.Equal(t, []float64{0.5, 0.5, 0.05}, scores)
	assert.Equal(t, []string{
		"One.", "One. Two.", "Three.", "Three. Four.", "Five.",
	}, c.calls)
}

func TestSegment_DuplicateTail(t *testing.T) {
	c := &scriptedClassifier{score: func(text string) float64 {
		if strings.HasPrefix(text, "One") {
			return 0.5
		}
		return 0
	}}

	chunks, _, err := New(c, WithDuplicateTail(true)).Segment(context.Background(), "One. Two. Three.")
	require.NoError(t, err)
	assert.Equal(t, []string{"One.", "Two. Three.", "Two. Three."}, chunks)

	chunks, _, err = New(c).Segment(context.Background(), "One. Two. Three.")
	require.NoError(t, err)
	assert.Equal(t, []string{"One.", "Two. Three."}, chunks)
}

func TestSegment_DuplicateTailAfterCommit(t *testing.T) {
	p := New(constant(0.9), WithDuplicateTail(true))

	chunks, _, err := p.Segment(context.Background(), "One. Two.")
	require.NoError(t, err)
	assert.Equal(t, []string{"One.", "Two.", "Two."}, chunks)
}

func TestSegment_CustomThresholdAndPattern(t *testing.T) {
	p := New(constant(0.5),
		WithThreshold(0.6),
		WithBoundaryPattern(regexp.MustCompile(`(;)\s+`)),
	)

	chunks, _, err := p.Segment(context.Background(), "a; b. c; d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a; b. c; d"}, chunks)
	assert.Equal(t, []string{"a;", "b. c;", "d"}, p.Units("a; b. c; d"))
}

func TestSegment_ClassifierError(t *testing.T) {
	c := &scriptedClassifier{err: errors.New("backend down")}

	chunks, _, err := New(c).Segment(context.Background(), "One. Two.")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrClassification)
	assert.Nil(t, chunks)
}

func TestProcess(t *testing.T) {
	p := New(constant(0.9))
	doc := &domain.Document{ID: "doc-1", URI: "/tmp/a.txt", Content: "Alpha beta. Gamma delta."}

	chunks, err := p.Process(context.Background(), doc, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for i, c := range chunks {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, i, c.Position)
		assert.InDelta(t, 0.9, c.Score, 1e-9)
		assert.NotNil(t, c.Metadata)
	}
	assert.Equal(t, "Alpha beta.", chunks[0].Content)
	assert.Equal(t, "Gamma delta.", chunks[1].Content)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
}

func TestProcess_EmptyContent(t *testing.T) {
	c := constant(0.9)

	chunks, err := New(c).Process(context.Background(), &domain.Document{ID: "d"}, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Empty(t, c.calls)
}
