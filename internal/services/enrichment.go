package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"ID-ENRICH/internal/models"
)

// ErrNoEvidence means neither search produced a single result
var ErrNoEvidence = errors.New("no search evidence for person")

const MsgEnrichmentParseFailed = "JSON parsing failed for additional information."

// EnrichmentFields is the fixed marketing profile the model fills in
var EnrichmentFields = []string{
	"Current_Occupation",
	"Previous_Occupation",
	"Background",
	"Education",
	"Lifestyle",
	"Persona",
	"Linkedin",
	"Facebook",
	"Instagram",
	"Other_Social",
	"Other_information",
}

const enrichmentSystemPrompt = "You are an assistant that extracts occupation, education, hobbies, social media profiles, " +
	"and other key personal details from descriptions for marketing purposes."

const enrichmentPromptTemplate = `Extract the person's occupation, education, hobbies, social media profiles, and other relevant personal details from the following information. Provide the data in a structured JSON format suitable for marketing use. Use the person's Thai name %s and English name %s.

You must extract the Entities below:
- Current_Occupation: The person's current occupation.
- Previous_Occupation: All previous occupations the person has held.
- Background: The person's background based on their previous occupations.
- Education: All educational details about the person.
- Lifestyle: Guess the person's lifestyle based on all available information. Respond in Thai
- Persona: Guess the person's persona based on all available information. Respond in Thai
- Linkedin: The only one exact URL of their Linkedin profile.
- Facebook: The only one exact URL of their Facebook profile.
- Instagram: The only one exact URL of their Instagram profile.
- Other_Social: All other social media details, including exact links. Respond in plain text
- Other_information: Any additional details relevant to use for insurance marketing.

Information Provided:
%s

%s

Instruction: Extract these entities and provide them strictly as a valid JSON object, with proper formatting and correct field names. Keep all details in their original language (Thai) and do not translate. If no information matches an entity, return null without fabricating it. Do not include explanations, backticks, or code formatting in the output.
Important: Do not generate arrays or objects in each entity in json format please use comma , instead in case that it contain many information.

Finally, please ensure it is properly formatted with all keys enclosed in double quotes and values either in double quotes (for strings) or null (if no data).`

// Enricher builds a marketing profile of a person from web search evidence
type Enricher struct {
	searcher WebSearcher
	llm      LanguageModel
	model    string
	limit    int
}

func NewEnricher(searcher WebSearcher, llm LanguageModel, model string, limit int) *Enricher {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &Enricher{searcher: searcher, llm: llm, model: model, limit: limit}
}

// Enrich searches both names concurrently and synthesizes one record.
// A failed search only removes its half of the evidence and is sent to the
// model as null. When both searches succeed without a single result the
// record is all-null and the model is not called. A parse failure yields the
// error sentinel record; a non-nil error means the model provider itself
// failed.
func (e *Enricher) Enrich(ctx context.Context, thaiName, engName string) (models.EnrichmentRecord, error) {
	thai, eng := e.gather(ctx, thaiName, engName)

	if noEvidence(thai) && noEvidence(eng) {
		log.Printf("[Enrich] %v: %q / %q", ErrNoEvidence, thaiName, engName)
		return emptyEnrichment(), nil
	}

	prompt := fmt.Sprintf(enrichmentPromptTemplate, thaiName, engName, evidenceJSON(eng), evidenceJSON(thai))
	raw, err := e.llm.Complete(ctx, CompletionRequest{
		Model:  e.model,
		System: enrichmentSystemPrompt,
		User:   prompt,
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("enrichment model call failed: %w", err)
	}

	record, err := decodeRecord(raw, EnrichmentFields, true)
	if err != nil {
		log.Printf("[Enrich] rejecting model output: %v", err)
		return models.NewEnrichmentError(MsgEnrichmentParseFailed), nil
	}
	return models.EnrichmentRecord(record), nil
}

// gather runs both searches and waits for both. Errors are logged and the
// corresponding result is left nil.
func (e *Enricher) gather(ctx context.Context, thaiName, engName string) (thai, eng models.SearchResult) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		thai = e.search(gctx, thaiName)
		return nil
	})
	g.Go(func() error {
		eng = e.search(gctx, engName)
		return nil
	})
	_ = g.Wait()
	return thai, eng
}

// search returns nil only when the search failed. An empty name is not
// searched and counts as a search without results.
func (e *Enricher) search(ctx context.Context, query string) models.SearchResult {
	if query == "" {
		return models.SearchResult{}
	}
	res, err := e.searcher.Search(ctx, query, e.limit)
	if err != nil {
		log.Printf("[Enrich] search for %q failed: %v", query, err)
		return nil
	}
	return res
}

// noEvidence reports a search that completed with no results
func noEvidence(res models.SearchResult) bool {
	return res != nil && len(res) == 0
}

func emptyEnrichment() models.EnrichmentRecord {
	rec := make(models.EnrichmentRecord, len(EnrichmentFields))
	for _, f := range EnrichmentFields {
		rec[f] = nil
	}
	return rec
}

// evidenceJSON renders one result set for the prompt; a failed search is null
func evidenceJSON(res models.SearchResult) string {
	if res == nil {
		return "null"
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return "null"
	}
	return strings.TrimSpace(b.String())
}
