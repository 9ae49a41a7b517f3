package domain

// Token is a lexically annotated token.
// Annotation is produced by a LexicalAnnotator and consumed by the
// segment filter.
type Token struct {
	// Text is the token as it appears in the segment.
	Text string

	// IsAlpha is true when every rune is a letter.
	IsAlpha bool

	// IsPunct is true when every rune is punctuation.
	IsPunct bool

	// LikeNum is true for digits, numeric literals and number words.
	LikeNum bool

	// IsStop is true for stop-words.
	IsStop bool

	// HasVector is true when the token has a known lexical vector,
	// used as a proxy for "real word".
	HasVector bool
}
