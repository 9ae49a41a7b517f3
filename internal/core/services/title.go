package services

import (
	"path/filepath"
	"strings"
)

// documentTitle picks a human-readable title for an extracted file.
// A non-empty Title in the PDF info dictionary wins; otherwise the file
// name is used without its extension, with separators as spaces.
func documentTitle(path string, metadata map[string]any) string {
	if info, ok := metadata["info"].(map[string]string); ok {
		if title := strings.TrimSpace(info["Title"]); title != "" {
			return title
		}
	}

	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
