package services

import (
	"context"
	"strings"
)

// CompletionRequest is a single, non-conversational model call.
// User may be empty, in which case System is the only instruction.
type CompletionRequest struct {
	Model  string
	System string
	User   string
	JSON   bool // ask the provider for a bare JSON object when supported
}

// LanguageModel is the boundary to any chat completion provider.
// Implementations return the raw text of the first candidate.
type LanguageModel interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Close() error
}

// stripCodeFences removes a surrounding ```json fence if the model added one
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
