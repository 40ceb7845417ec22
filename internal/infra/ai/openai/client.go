package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
)

const maxTokens = 2048

// Client is an ai.Generator backed by an OpenAI compatible chat API.
// It has no search tool; web_search requests are served without it.
type Client struct {
	*openai.Client
}

// NewClient creates a client. An empty baseURL uses the public endpoint.
func NewClient(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg)}
}

func (c *Client) Generate(ctx context.Context, r *ai.Request) (string, error) {
	if r.HasTool(ai.ToolWebSearch) {
		log.Warn().Str("model", r.Model).Msg("openai provider has no web search, continuing without it")
	}

	req := openai.ChatCompletionRequest{
		Model:       r.Model,
		Temperature: r.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: r.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, MultiContent: userParts(r.Parts)},
		},
	}
	if r.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "customs_analysis",
				Schema: r.Schema,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoning(r.Model) {
		req.MaxCompletionTokens = maxTokens
		req.Temperature = 0
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(r.Model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ai.ErrEmptyGeneration
	}

	log.Info().
		Str("model", r.Model).
		Int("inputTokens", resp.Usage.PromptTokens).
		Int("outputTokens", resp.Usage.CompletionTokens).
		Msg("openai llm call")

	return resp.Choices[0].Message.Content, nil
}

func isReasoning(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func userParts(in []ai.Part) []openai.ChatMessagePart {
	out := make([]openai.ChatMessagePart, 0, len(in))
	for _, p := range in {
		if p.IsInline() {
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(p.MIMEType, p.Data),
					Detail: openai.ImageURLDetailAuto,
				},
			})
			continue
		}
		out = append(out, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
	}
	return out
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func classify(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{Model: model, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &ai.ProviderError{Model: model, StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, err)
}
