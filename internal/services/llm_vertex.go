package services

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexModel calls Gemini through Vertex AI using application default credentials
type VertexModel struct {
	client *genai.Client
}

func NewVertexModel(ctx context.Context, projectID, region string) (*VertexModel, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexModel: projectID and region cannot be empty")
	}
	cl, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &VertexModel{client: cl}, nil
}

func (v *VertexModel) Name() string { return "vertex" }

func (v *VertexModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m := v.client.GenerativeModel(strings.TrimSpace(req.Model))
	m.GenerationConfig = genai.GenerationConfig{Temperature: genai.Ptr[float32](0)}
	if req.JSON {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}
	// The document text is personal data, not harmful content.
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	var parts []genai.Part
	if req.User == "" {
		parts = []genai.Part{genai.Text(req.System)}
	} else {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
		parts = []genai.Part{genai.Text(req.User)}
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t), nil
			}
		}
	}
	return "", fmt.Errorf("vertex generate: empty response")
}

func (v *VertexModel) Close() error {
	return v.client.Close()
}
