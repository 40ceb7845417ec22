package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
)

// Config configures the Gemini client. BaseURL is only set in tests or when
// routing through a proxy.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Client is an ai.Generator backed by the Gemini API.
type Client struct {
	client *genai.Client
}

// NewClient creates a Gemini generator.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// Generate sends one generation request and returns the raw text answer.
func (c *Client) Generate(ctx context.Context, req *ai.Request) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts(parts(req.Parts), genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config(req))
	if err != nil {
		return "", classify(req.Model, err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", ai.ErrEmptyGeneration
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyGeneration
	}

	ev := log.Info().Str("model", req.Model).Bool("search", req.HasTool(ai.ToolWebSearch))
	if u := result.UsageMetadata; u != nil {
		ev = ev.Int32("inputTokens", u.PromptTokenCount).
			Int32("outputTokens", u.CandidatesTokenCount).
			Int32("totalTokens", u.TotalTokenCount)
	}
	ev.Msg("gemini llm call")

	return text, nil
}

func parts(in []ai.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(in))
	for _, p := range in {
		if p.IsInline() {
			out = append(out, &genai.Part{InlineData: &genai.Blob{Data: p.Data, MIMEType: p.MIMEType}})
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

// config maps the request options. Gemini rejects a response schema
// together with the search tool, so with search enabled the shape is only
// described in the instruction text.
func config(req *ai.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.HasTool(ai.ToolWebSearch) {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		return cfg
	}
	cfg.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		cfg.ResponseSchema = schema(req.Schema)
	}
	return cfg
}

func schema(s *ai.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description:      s.Description,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            schema(s.Items),
	}
	switch s.Type {
	case ai.TypeObject:
		out.Type = genai.TypeObject
	case ai.TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = schema(p)
		}
	}
	return out
}

func classify(model string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{Model: model, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &ai.ProviderError{Model: model, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("%w: %w", ai.ErrProviderUnavailable, err)
}
