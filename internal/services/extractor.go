package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"ID-ENRICH/internal/models"
)

const (
	MsgNoTextDetected      = "No text detected in the image."
	MsgInvalidModelOutput  = "Invalid JSON response from the language model."
	MsgInvalidDocumentType = "Invalid document type selected."
)

// Thai ID numbers are printed as 1-4-5-2-1 digit groups. The strict pattern
// wants exactly one whitespace between groups; the lenient one accepts any
// amount, including none.
var (
	strictIDPattern  = regexp.MustCompile(`\d\s\d{4}\s\d{5}\s\d{2}\s\d`)
	lenientIDPattern = regexp.MustCompile(`\d\s*\d{4}\s*\d{5}\s*\d{2}\s*\d`)
)

// Values some models emit instead of a JSON null
var nullLiterals = map[string]bool{
	"null": true, "none": true, "n/a": true,
}

// Thai digit to Arabic digit mapping
var thaiDigits = map[rune]rune{
	'๐': '0', '๑': '1', '๒': '2', '๓': '3', '๔': '4',
	'๕': '5', '๖': '6', '๗': '7', '๘': '8', '๙': '9',
}

// Extractor turns recognized text into a StructuredRecord for one document type
type Extractor struct {
	llm   LanguageModel
	model string
}

func NewExtractor(llm LanguageModel, model string) *Extractor {
	return &Extractor{llm: llm, model: model}
}

// Extract runs one model call over the recognized text.
// User-facing failures come back as a PipelineError; a non-nil error means
// the model provider itself failed.
func (e *Extractor) Extract(ctx context.Context, text string, docType models.DocumentType) (models.StructuredRecord, *models.PipelineError, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &models.PipelineError{Message: MsgNoTextDetected}, nil
	}

	schema, err := SchemaFor(docType)
	if err != nil {
		return nil, &models.PipelineError{Message: MsgInvalidDocumentType}, nil
	}

	raw, err := e.llm.Complete(ctx, CompletionRequest{
		Model:  e.model,
		System: schema.Instructions(text),
		JSON:   true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("extraction model call failed: %w", err)
	}

	record, err := decodeRecord(raw, schema.FieldNames(), false)
	if err != nil {
		log.Printf("[Extractor] rejecting model output for %s: %v", docType, err)
		return nil, &models.PipelineError{Message: MsgInvalidModelOutput}, nil
	}

	record[models.IDCardField] = FindIDCard(text)
	return record, nil, nil
}

// FindIDCard locates a 13-digit ID in the text and returns it only when the
// checksum passes
func FindIDCard(text string) *string {
	normalized := normalizeThaiDigits(text)
	match := strictIDPattern.FindString(normalized)
	if match == "" {
		match = lenientIDPattern.FindString(normalized)
	}
	if match == "" {
		return nil
	}
	digits := strings.Join(strings.Fields(match), "")
	if !ValidateThaiID(digits) {
		return nil
	}
	return &digits
}

// decodeRecord parses a bare JSON object and projects it onto the given
// fields. Missing fields become null, unknown keys are dropped.
func decodeRecord(raw string, fields []string, joinArrays bool) (map[string]*string, error) {
	dec := json.NewDecoder(strings.NewReader(stripCodeFences(raw)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if obj == nil {
		return nil, errors.New("decode: expected a JSON object, got null")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode: trailing data after JSON object")
	}

	record := make(map[string]*string, len(fields)+1)
	for _, f := range fields {
		record[f] = coerceValue(obj[f], joinArrays)
	}
	return record, nil
}

// coerceValue maps a decoded JSON value to a string or null without
// inventing content: numbers and booleans keep their literal form, nested
// objects become null, arrays become null unless joinArrays is set.
func coerceValue(v any, joinArrays bool) *string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" || nullLiterals[strings.ToLower(s)] {
			return nil
		}
		return &s
	case json.Number:
		s := val.String()
		return &s
	case bool:
		s := strconv.FormatBool(val)
		return &s
	case []any:
		if !joinArrays {
			return nil
		}
		var parts []string
		for _, item := range val {
			if p := coerceValue(item, false); p != nil {
				parts = append(parts, *p)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		s := strings.Join(parts, ", ")
		return &s
	default:
		return nil
	}
}

// normalizeThaiDigits converts Thai digits to Arabic digits
func normalizeThaiDigits(text string) string {
	if !strings.ContainsFunc(text, func(r rune) bool { _, ok := thaiDigits[r]; return ok }) {
		return text
	}
	var result strings.Builder
	for _, r := range text {
		if arabic, ok := thaiDigits[r]; ok {
			result.WriteRune(arabic)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
