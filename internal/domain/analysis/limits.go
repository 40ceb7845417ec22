package analysis

const (
	// MaxPromptRunes caps the free-text note.
	MaxPromptRunes = 4000
	// MaxImageBytes caps the decoded image; inline data must stay well under
	// the provider's 20 MB request limit.
	MaxImageBytes = 7 << 20
	// DefaultImagePrompt is stored as the history prompt of image-only requests.
	DefaultImagePrompt = "Görsel Analizi"
)
