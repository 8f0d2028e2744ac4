//go:build tesseract

package services

import (
	"context"
	"fmt"
	"log"

	"github.com/otiai10/gosseract/v2"
)

func init() {
	registerRecognizer("tesseract", func(ctx context.Context, opts RecognizerOptions) (TextRecognizer, error) {
		return NewTesseractRecognizer(opts.Languages), nil
	})
}

// TesseractRecognizer runs OCR locally through libtesseract.
// The whole image is treated as a single block whose lines are the
// RIL_TEXTLINE boxes in reading order.
type TesseractRecognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewTesseractRecognizer(languages []string) *TesseractRecognizer {
	return &TesseractRecognizer{
		languages:     tesseractLanguages(languages),
		clientFactory: gosseract.NewClient,
	}
}

func (r *TesseractRecognizer) Name() string { return "tesseract" }

func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := r.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(r.languages) > 0 {
		if err := c.SetLanguage(r.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return "", fmt.Errorf("recognize text lines: %w", err)
	}
	lines := make([]string, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, b.Word)
	}

	text := JoinFirstBlock([]TextBlock{{Lines: lines}})
	log.Printf("[OCR] tesseract recognized %d characters", len(text))
	return text, nil
}

// tesseractLanguages maps ISO 639-1 hints to tesseract traineddata names
func tesseractLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		switch l {
		case "th":
			out = append(out, "tha")
		case "en":
			out = append(out, "eng")
		default:
			out = append(out, l)
		}
	}
	return out
}
