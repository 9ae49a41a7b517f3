// Package cleaner implements the strict text cleaning policy applied
// between extraction and segmentation.
package cleaner

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Cleaner implements the interface.
var _ driven.Cleaner = (*Cleaner)(nil)

var (
	// hyphenBreak matches a word broken across a line end, e.g. "segmen-\ntation".
	hyphenBreak = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{Ll})`)

	whitespaceRun = regexp.MustCompile(`\s+`)

	punctuation = strings.NewReplacer(
		"\u2018", "'", // left single quote
		"\u2019", "'", // right single quote
		"\u201A", "'",
		"\u201B", "'",
		"\u2032", "'",
		"\u201C", `"`, // left double quote
		"\u201D", `"`, // right double quote
		"\u201E", `"`,
		"\u201F", `"`,
		"\u2033", `"`,
		"\u00AB", `"`,
		"\u00BB", `"`,
		"\u2010", "-", // hyphen
		"\u2011", "-", // non-breaking hyphen
		"\u2012", "-", // figure dash
		"\u2013", "-", // en dash
		"\u2014", "-", // em dash
		"\u2015", "-",
		"\u2212", "-", // minus sign
		"\u2026", "...",
		"\u00A0", " ", // no-break space
		"\u2007", " ",
		"\u2009", " ",
		"\u202F", " ",
		"\u3000", " ",
		"\u00AD", "", // soft hyphen
		"\u200B", "", // zero width space
		"\uFEFF", "", // byte order mark
	)
)

// Cleaner applies NFC normalisation, punctuation standardisation,
// hyphenation repair and whitespace collapsing. Case is preserved.
type Cleaner struct{}

// New creates a new cleaner.
func New() *Cleaner {
	return &Cleaner{}
}

// Clean returns the cleaned text.
func (c *Cleaner) Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = norm.NFC.String(text)
	text = punctuation.Replace(text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = whitespaceRun.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
