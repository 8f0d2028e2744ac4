package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel calls the Gemini API with an API key
type GeminiModel struct {
	client *genai.Client
}

func NewGeminiModel(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GOOGLE_AI_API_KEY not configured")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiModel{client: cl}, nil
}

func (g *GeminiModel) Name() string { return "gemini" }

func (g *GeminiModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m := g.client.GenerativeModel(strings.TrimSpace(req.Model))
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}
	if req.JSON {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}

	// Gemini needs at least one content part, so a system-only request sends
	// the instruction itself as the content.
	var parts []genai.Part
	if req.User == "" {
		parts = []genai.Part{genai.Text(req.System)}
	} else {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
		parts = []genai.Part{genai.Text(req.User)}
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	txt := geminiFirstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return txt, nil
}

func (g *GeminiModel) Close() error {
	return g.client.Close()
}

func geminiFirstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
