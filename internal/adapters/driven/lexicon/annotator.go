// Package lexicon provides the built-in English lexical annotator used by
// the segment filter.
package lexicon

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Annotator implements the interface.
var _ driven.LexicalAnnotator = (*Annotator)(nil)

// tokenPattern matches words (with inner apostrophes), numbers (with inner
// separators) and single punctuation or symbol characters.
var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+(?:[.,:/]\p{N}+)*|[^\s\p{L}\p{N}]`)

// maxWordLength bounds the heuristic vocabulary.
const maxWordLength = 24

// Annotator tokenizes English text and flags each token.
type Annotator struct {
	stopwords  map[string]struct{}
	numbers    map[string]struct{}
	vocabulary map[string]struct{}
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithVocabulary sets the known-word list deciding HasVector.
// Words are matched case-insensitively.
func WithVocabulary(words []string) Option {
	return func(a *Annotator) {
		a.vocabulary = make(map[string]struct{}, len(words))
		for _, w := range words {
			a.vocabulary[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithStopwords replaces the built-in stop-word list.
func WithStopwords(words []string) Option {
	return func(a *Annotator) {
		a.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			a.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// New creates an annotator with the built-in stop-word list.
func New(opts ...Option) *Annotator {
	a := &Annotator{
		stopwords: toSet(englishStopwords),
		numbers:   toSet(numberWords),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadVocabulary reads a word list with one word per line.
// Blank lines and lines starting with # are skipped.
func LoadVocabulary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return words, nil
}

// Annotate splits text into tokens in source order.
func (a *Annotator) Annotate(ctx context.Context, text string) ([]domain.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrFilter)
	}

	raw := tokenPattern.FindAllString(text, -1)
	tokens := make([]domain.Token, 0, len(raw))
	for _, t := range raw {
		tokens = append(tokens, a.annotate(t))
	}
	return tokens, nil
}

func (a *Annotator) annotate(text string) domain.Token {
	lower := strings.ToLower(text)
	tok := domain.Token{
		Text:    text,
		IsAlpha: isAlpha(text),
		IsPunct: isPunct(text),
	}
	_, numberWord := a.numbers[lower]
	tok.LikeNum = isNumeric(text) || numberWord
	_, tok.IsStop = a.stopwords[lower]

	if tok.IsAlpha {
		tok.HasVector = a.hasVector(lower)
	}
	return tok
}

func (a *Annotator) hasVector(lower string) bool {
	if a.vocabulary != nil {
		_, ok := a.vocabulary[lower]
		return ok
	}
	return looksLikeWord(lower)
}

// looksLikeWord accepts letter sequences shaped like natural-language
// words: bounded length, at least one vowel for ASCII words and no run of
// three identical letters.
func looksLikeWord(w string) bool {
	runes := []rune(w)
	if len(runes) > maxWordLength {
		return false
	}
	if len(runes) == 1 {
		return w == "a" || w == "i" || runes[0] > unicode.MaxASCII
	}

	ascii := true
	vowel := false
	run := 1
	for i, r := range runes {
		if r > unicode.MaxASCII {
			ascii = false
		}
		if strings.ContainsRune("aeiouy", r) {
			vowel = true
		}
		if i > 0 && r == runes[i-1] {
			run++
			if run >= 3 {
				return false
			}
		} else {
			run = 1
		}
	}
	return vowel || !ascii
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return s != ""
}

func isNumeric(s string) bool {
	digit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r) || unicode.IsNumber(r):
			digit = true
		case strings.ContainsRune(".,:/", r):
		default:
			return false
		}
	}
	return digit
}
