package services

import (
	"context"
	"log"
	"time"

	"ID-ENRICH/internal/models"
)

// Pipeline runs recognition, extraction and enrichment for one document
type Pipeline struct {
	recognizer TextRecognizer
	extractor  *Extractor
	enricher   *Enricher
	timeout    time.Duration
}

func NewPipeline(recognizer TextRecognizer, extractor *Extractor, enricher *Enricher, timeout time.Duration) *Pipeline {
	return &Pipeline{
		recognizer: recognizer,
		extractor:  extractor,
		enricher:   enricher,
		timeout:    timeout,
	}
}

// Process never returns a Go error: every failure is folded into the
// result's error descriptor so the caller can always render it.
func (p *Pipeline) Process(ctx context.Context, doc models.Document) models.PipelineResult {
	if !doc.Type.IsValid() {
		return models.PipelineResult{Error: MsgInvalidDocumentType}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := p.recognizer.Recognize(ctx, doc.Data)
	if err != nil {
		log.Printf("[OCR] %s failed for %s: %v", p.recognizer.Name(), doc.Filename, err)
		return models.PipelineResult{Error: err.Error()}
	}
	log.Printf("[OCR] %s read %d characters from %s in %v", p.recognizer.Name(), len([]rune(text)), doc.Filename, time.Since(start))

	record, perr, err := p.extractor.Extract(ctx, text, doc.Type)
	if err != nil {
		log.Printf("[Extractor] %s: %v", doc.Filename, err)
		return models.PipelineResult{Error: err.Error()}
	}
	if perr != nil {
		return models.PipelineResult{Error: perr.Message, ImagePath: doc.Filename}
	}

	result := models.PipelineResult{JSONData: record, ImagePath: doc.Filename}

	name, ok := record.Get("Name")
	if !ok {
		return result
	}
	engName, _ := record.Get("Eng_Name")

	info, err := p.enricher.Enrich(ctx, name, engName)
	if err != nil {
		log.Printf("[Enrich] %s: %v", doc.Filename, err)
		return models.PipelineResult{Error: err.Error()}
	}
	result.OtherInfo = info
	return result
}
