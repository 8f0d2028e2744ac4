package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// TextRecognizer turns raw image bytes into recognized text
type TextRecognizer interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TextBlock is one block of recognized lines as reported by an OCR provider
type TextBlock struct {
	Lines []string
}

// JoinFirstBlock concatenates the lines of the first block, trimming each
// line and inserting no separator. The extraction prompts are tuned for
// this exact format, so it must not change.
func JoinFirstBlock(blocks []TextBlock) string {
	if len(blocks) == 0 || len(blocks[0].Lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range blocks[0].Lines {
		b.WriteString(strings.TrimSpace(line))
	}
	return strings.TrimSpace(b.String())
}

// VisionRecognizer reads text with Google Cloud Vision DOCUMENT_TEXT_DETECTION
type VisionRecognizer struct {
	svc       *vision.Service
	languages []string
}

// NewVisionRecognizer creates a recognizer authenticated with an API key or,
// when the key is empty, a service account credentials file (or ADC).
func NewVisionRecognizer(ctx context.Context, apiKey, credentialsPath string, languages []string) (*VisionRecognizer, error) {
	var opts []option.ClientOption
	switch {
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	case credentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	return NewVisionRecognizerWithOptions(ctx, languages, opts...)
}

// NewVisionRecognizerWithOptions creates a recognizer from raw client options
func NewVisionRecognizerWithOptions(ctx context.Context, languages []string, opts ...option.ClientOption) (*VisionRecognizer, error) {
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision client: %w", err)
	}
	return &VisionRecognizer{svc: svc, languages: languages}, nil
}

func (r *VisionRecognizer) Name() string { return "vision" }

// Recognize calls the Vision API once; errors are returned as-is, never retried
func (r *VisionRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION", MaxResults: 1}},
			},
		},
	}
	if len(r.languages) > 0 {
		req.Requests[0].ImageContext = &vision.ImageContext{LanguageHints: r.languages}
	}

	resp, err := r.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to call Vision API: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}
	item := resp.Responses[0]
	if item.Error != nil && item.Error.Message != "" {
		return "", fmt.Errorf("Vision API error: %s", item.Error.Message)
	}

	text := JoinFirstBlock(visionBlocks(item.FullTextAnnotation))
	log.Printf("[OCR] vision recognized %d characters", len(text))
	return text, nil
}

// visionBlocks maps each Vision page to one TextBlock. Vision does not report
// lines, so they are rebuilt from the detected break after each symbol.
func visionBlocks(annotation *vision.TextAnnotation) []TextBlock {
	if annotation == nil {
		return nil
	}
	blocks := make([]TextBlock, 0, len(annotation.Pages))
	for _, page := range annotation.Pages {
		var lines []string
		var cur strings.Builder
		flush := func() {
			if s := strings.TrimSpace(cur.String()); s != "" {
				lines = append(lines, s)
			}
			cur.Reset()
		}
		for _, block := range page.Blocks {
			for _, para := range block.Paragraphs {
				for _, word := range para.Words {
					for _, sym := range word.Symbols {
						cur.WriteString(sym.Text)
						switch detectedBreak(sym) {
						case "SPACE", "SURE_SPACE":
							cur.WriteByte(' ')
						case "EOL_SURE_SPACE", "LINE_BREAK":
							flush()
						case "HYPHEN":
							cur.WriteByte('-')
							flush()
						}
					}
				}
			}
		}
		flush()
		if len(lines) > 0 {
			blocks = append(blocks, TextBlock{Lines: lines})
		}
	}
	return blocks
}

func detectedBreak(sym *vision.Symbol) string {
	if sym == nil || sym.Property == nil || sym.Property.DetectedBreak == nil {
		return ""
	}
	return sym.Property.DetectedBreak.Type
}
