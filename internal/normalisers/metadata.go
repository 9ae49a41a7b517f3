package normalisers

import (
	"os"
	"time"
)

// Metadata keys shared by all extractors.
const (
	KeyPageCount      = "number_of_pages"
	KeyEncrypted      = "encrypted"
	KeyInfo           = "info"
	KeyFileSize       = "file_size"
	KeyExtractionTime = "extraction_time"
)

// FileMetadata builds the metadata map common to every extractor.
func FileMetadata(info os.FileInfo, pages int, encrypted bool) map[string]any {
	return map[string]any{
		KeyPageCount:      pages,
		KeyEncrypted:      encrypted,
		KeyFileSize:       info.Size(),
		KeyExtractionTime: time.Now().UTC().Format(time.RFC3339),
	}
}
