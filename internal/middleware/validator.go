package middleware

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Input validation and sanitization utilities

var (
	ErrInvalidImage = errors.New("invalid image data")
	ErrNotAnImage   = errors.New("data is not an image")
)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage clamps a 1-based page number.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// DecodeImage decodes a base64 image, optionally given as a data URL
// ("data:image/png;base64,..."). The MIME type comes from the data URL
// prefix or is sniffed from the bytes; it must be an image type.
func DecodeImage(encoded string, maxBytes int) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	declared := ""
	if strings.HasPrefix(encoded, "data:") {
		meta, payload, ok := strings.Cut(encoded, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: malformed data url", ErrInvalidImage)
		}
		declared = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		encoded = payload
	}

	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(encoded)) > maxBytes+3 {
		return nil, "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// some clients strip padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty", ErrInvalidImage)
	}

	mime := declared
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
		if i := strings.IndexByte(mime, ';'); i >= 0 {
			mime = mime[:i]
		}
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", ErrNotAnImage
	}
	return data, mime, nil
}
