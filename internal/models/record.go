package models

import "encoding/json"

// IDCardField is injected into every StructuredRecord after checksum validation
const IDCardField = "ID_Card"

// StructuredRecord maps schema field names to extracted values.
// A nil value means the field was not found and serialises as JSON null.
type StructuredRecord map[string]*string

// Get returns the value of a field and whether it is present and non-empty
func (r StructuredRecord) Get(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

// SearchItem is one ranked result from the web search engine
type SearchItem struct {
	Title       string `json:"Title"`
	Link        string `json:"Link"`
	Description string `json:"Description"`
}

// SearchResult is an ordered list of search items.
// An empty non-nil slice means the engine reported no results; a nil
// SearchResult means the request itself failed.
type SearchResult []SearchItem

// EnrichmentRecord maps marketing fields to values derived from search
// evidence. When synthesis fails the record holds a single "error" key.
type EnrichmentRecord map[string]*string

const enrichmentErrorKey = "error"

// NewEnrichmentError builds the sentinel record returned when enrichment
// could not be produced
func NewEnrichmentError(message string) EnrichmentRecord {
	return EnrichmentRecord{enrichmentErrorKey: &message}
}

// Err returns the error message carried by a sentinel record, or ""
func (r EnrichmentRecord) Err() string {
	if v, ok := r[enrichmentErrorKey]; ok && v != nil && len(r) == 1 {
		return *v
	}
	return ""
}

// PipelineError is a user visible failure of the extraction pipeline
type PipelineError struct {
	Message string
}

func (e *PipelineError) Error() string { return e.Message }

// PipelineResult is the terminal aggregate returned to the HTTP caller
type PipelineResult struct {
	JSONData  StructuredRecord
	ImagePath string
	OtherInfo EnrichmentRecord
	Error     string
}

// Failed reports whether the pipeline ended with an error descriptor
func (r PipelineResult) Failed() bool { return r.Error != "" }

// MarshalJSON renders either the success shape
// {"json_data", "image_path", "other_info"} or the error shape
// {"error", "image_path"?}.
func (r PipelineResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error     string `json:"error"`
			ImagePath string `json:"image_path,omitempty"`
		}{r.Error, r.ImagePath})
	}
	return json.Marshal(struct {
		JSONData  StructuredRecord `json:"json_data"`
		ImagePath string           `json:"image_path"`
		OtherInfo EnrichmentRecord `json:"other_info"`
	}{r.JSONData, r.ImagePath, r.OtherInfo})
}
