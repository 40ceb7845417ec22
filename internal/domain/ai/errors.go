package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrProviderUnavailable covers transport failures and deadlines.
var ErrProviderUnavailable = errors.New("ai provider unavailable")

// ErrEmptyGeneration means the provider answered without usable text.
var ErrEmptyGeneration = errors.New("ai returned no text")

// ProviderError is a non-success response from the provider. Body keeps the
// provider's message for diagnostics.
type ProviderError struct {
	Model      string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider error (%s, status %d): %s", e.Model, e.StatusCode, e.Body)
}

// Is lets a 429 match ErrQuotaExceeded.
func (e *ProviderError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.StatusCode == http.StatusTooManyRequests
}
