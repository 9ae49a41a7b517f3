package driven

// Cleaner normalises extracted text before segmentation.
type Cleaner interface {
	// Clean returns the cleaned text. It never fails.
	Clean(text string) string
}
