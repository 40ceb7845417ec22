package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

const temperature = 0.3

// Compose builds the generation request for req under caps. It is pure:
// the same input always yields the same request.
func Compose(p ai.Prompts, req domain.Request, caps account.Capabilities) (*ai.Request, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	out := &ai.Request{
		Model:             caps.Model,
		SystemInstruction: p.SystemInstruction(caps.MarketData),
		Schema:            p.ResultSchema(caps.MarketData),
		Temperature:       temperature,
	}
	if caps.WebSearch {
		out.Tools = append(out.Tools, ai.ToolWebSearch)
	}

	// image first, then the note
	if req.Image != nil {
		out.Parts = append(out.Parts, ai.Part{Data: req.Image.Data, MIMEType: req.Image.MIMEType})
	}
	out.Parts = append(out.Parts, ai.Part{Text: p.UserText(req.UserPrompt, req.Image != nil)})
	return out, nil
}

func validate(req domain.Request) error {
	if req.Empty() || (req.Image == nil && strings.TrimSpace(req.UserPrompt) == "") {
		return newError(KindInvalidRequest, msgEmptyInput, nil)
	}
	if utf8.RuneCountInString(req.UserPrompt) > domain.MaxPromptRunes {
		return newError(KindInvalidRequest, msgPromptTooLong, nil)
	}
	if req.Image != nil {
		if len(req.Image.Data) > domain.MaxImageBytes {
			return newError(KindInvalidRequest, msgImageTooLarge, nil)
		}
		if !strings.HasPrefix(req.Image.MIMEType, "image/") {
			return newError(KindInvalidRequest, msgImageType, nil)
		}
	}
	return nil
}
