// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the user's ~/.sercha-ingest directory.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: editable classifier prompt templates
package file
