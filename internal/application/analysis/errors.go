package analysis

import (
	"errors"
	"fmt"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

// Kind classifies a terminal pipeline failure.
type Kind string

const (
	KindUnauthenticated     Kind = "unauthenticated"
	KindInvalidRequest      Kind = "invalid_request"
	KindAuthUnavailable     Kind = "auth_unavailable"
	KindProfileNotFound     Kind = "profile_not_found"
	KindInsufficientCredit  Kind = "insufficient_credit"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindProviderError       Kind = "provider_error"
	KindEmptyGeneration     Kind = "empty_generation"
	KindInternal            Kind = "internal"
)

// Error is the single error type the pipeline returns. Message is safe to
// show to the end user.
type Error struct {
	Kind    Kind
	Message string
	// Tier and Credits are set for KindInsufficientCredit.
	Tier    account.Tier
	Credits int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a pipeline error, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

const (
	msgMissingAuth    = "Oturum açmanız gerekiyor."
	msgInvalidAuth    = "Kullanıcı doğrulanamadı."
	msgAuthDown       = "Kimlik doğrulama servisine ulaşılamadı. Lütfen tekrar deneyin."
	msgEmptyInput     = "Lütfen bir ürün açıklaması yazın veya görsel yükleyin."
	msgPromptTooLong  = "Ürün açıklaması çok uzun."
	msgImageTooLarge  = "Görsel boyutu çok büyük."
	msgImageType      = "Yalnızca görsel dosyaları analiz edilebilir."
	msgNoProfile      = "Kullanıcı profili bulunamadı."
	msgNoCredit       = "Yetersiz kredi. Lütfen paket yükseltin."
	msgProviderDown   = "Yapay zeka servisine ulaşılamadı. Lütfen tekrar deneyin."
	msgProviderFailed = "AI Hatası (%s)."
	msgNoGeneration   = "AI yanıt oluşturamadı."
	msgInternal       = "Bilinmeyen sunucu hatası"
)
