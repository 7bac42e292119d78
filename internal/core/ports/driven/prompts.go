package driven

// PromptStore provides access to AI-assisted extraction prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error unless a default exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptExtractionSystem is the system instruction for AI-assisted
	// text extraction. It has no format placeholders.
	PromptExtractionSystem = "extraction_system"

	// PromptExtractionUser accompanies the document bytes in an
	// extraction request. It has no format placeholders.
	PromptExtractionUser = "extraction_user"
)

// PromptStoreAware is implemented by adapters whose prompts can be
// customised after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store. Without one, built-in
	// prompts are used.
	SetPromptStore(store PromptStore)
}
