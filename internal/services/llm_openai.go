package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OpenAIModel talks to the chat completions endpoint of OpenAI or, when an
// API version is set, an Azure OpenAI deployment named after the model.
type OpenAIModel struct {
	apiKey     string
	baseURL    string
	apiVersion string
	httpc      *http.Client
}

func NewOpenAIModel(apiKey, baseURL, apiVersion string) (*OpenAIModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not configured")
	}
	return &OpenAIModel{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		httpc:      &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// WithHTTPClient overrides the internal HTTP client
func (o *OpenAIModel) WithHTTPClient(c *http.Client) *OpenAIModel {
	if c != nil {
		o.httpc = c
	}
	return o
}

func (o *OpenAIModel) Name() string { return "openai" }

func (o *OpenAIModel) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []any{
		map[string]any{"role": "system", "content": req.System},
	}
	if req.User != "" {
		messages = append(messages, map[string]any{"role": "user", "content": req.User})
	}
	body := map[string]any{
		"messages":    messages,
		"temperature": 0,
	}
	if o.apiVersion == "" {
		body["model"] = req.Model
	}
	if req.JSON {
		body["response_format"] = map[string]any{"type": "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint(req.Model), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiVersion != "" {
		httpReq.Header.Set("api-key", o.apiKey)
	} else {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", fmt.Errorf("openai %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return raw.Choices[0].Message.Content, nil
}

func (o *OpenAIModel) endpoint(model string) string {
	if o.apiVersion != "" {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			o.baseURL, url.PathEscape(model), url.QueryEscape(o.apiVersion))
	}
	return o.baseURL + "/chat/completions"
}

func (o *OpenAIModel) Close() error { return nil }
