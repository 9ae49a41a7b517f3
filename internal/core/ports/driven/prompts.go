package driven

// PromptStore provides access to model prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names.
const (
	// PromptSegmentScore asks a generation model to rate how complete a
	// candidate chunk is. The template expects one %s placeholder for the
	// candidate text.
	PromptSegmentScore = "segment_score"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// If no store is injected, the service uses its built-in prompt.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	SetPromptStore(store PromptStore)
}
