package ai

import "context"

// Generator issues one synchronous generation call and returns the raw text.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
}

// Prompts supplies the instruction texts and answer schema of a request.
// withMarket selects the variant that also asks for market data.
type Prompts interface {
	SystemInstruction(withMarket bool) string
	UserText(note string, hasImage bool) string
	ResultSchema(withMarket bool) *Schema
}
