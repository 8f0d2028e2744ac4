package services

import (
	"context"
	"fmt"
	"sync"

	"ID-ENRICH/internal/config"
)

// RecognizerOptions carries provider-specific OCR settings
type RecognizerOptions struct {
	VisionAPIKey    string
	CredentialsPath string
	Languages       []string
}

type recognizerFactory func(ctx context.Context, opts RecognizerOptions) (TextRecognizer, error)

var (
	recognizersMu sync.RWMutex
	recognizers   = map[string]recognizerFactory{}
)

func registerRecognizer(name string, f recognizerFactory) {
	recognizersMu.Lock()
	defer recognizersMu.Unlock()
	recognizers[name] = f
}

func init() {
	registerRecognizer("vision", func(ctx context.Context, opts RecognizerOptions) (TextRecognizer, error) {
		return NewVisionRecognizer(ctx, opts.VisionAPIKey, opts.CredentialsPath, opts.Languages)
	})
}

// NewRecognizer builds the OCR provider selected in configuration.
// "tesseract" is only available in binaries built with -tags tesseract.
func NewRecognizer(ctx context.Context, cfg config.OCRConfig) (TextRecognizer, error) {
	recognizersMu.RLock()
	f, ok := recognizers[cfg.Provider]
	recognizersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("OCR provider %q is not available in this build", cfg.Provider)
	}
	return f(ctx, RecognizerOptions{
		VisionAPIKey:    cfg.VisionAPIKey,
		CredentialsPath: cfg.CredentialsPath,
		Languages:       cfg.Languages,
	})
}

// NewLanguageModel builds the LLM provider selected in configuration
func NewLanguageModel(ctx context.Context, cfg config.LLMConfig) (LanguageModel, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiModel(ctx, cfg.GeminiAPIKey)
	case "vertex":
		return NewVertexModel(ctx, cfg.VertexProject, cfg.VertexRegion)
	case "openai":
		return NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIAPIVersion)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
