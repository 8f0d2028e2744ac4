package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ID-ENRICH/internal/models"
)

type pipelineFixture struct {
	recognizer *fakeRecognizer
	extractLLM *fakeLLM
	enrichLLM  *fakeLLM
	searcher   *fakeSearcher
	pipeline   *Pipeline
}

func newPipelineFixture(text string, extraction string) *pipelineFixture {
	f := &pipelineFixture{
		recognizer: &fakeRecognizer{text: text},
		extractLLM: &fakeLLM{responses: []string{extraction}},
		enrichLLM:  &fakeLLM{responses: []string{`{"Current_Occupation": "วิศวกร"}`}},
		searcher:   &fakeSearcher{},
	}
	f.pipeline = NewPipeline(
		f.recognizer,
		NewExtractor(f.extractLLM, "extract"),
		NewEnricher(f.searcher, f.enrichLLM, "enrich", 5),
		time.Minute,
	)
	return f
}

func idCardDoc() models.Document {
	return models.Document{Filename: "card.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}, Type: models.DocumentIDCard}
}

func TestPipelineInvalidTypeMakesNoCalls(t *testing.T) {
	f := newPipelineFixture("text", `{}`)
	doc := idCardDoc()
	doc.Type = "passport"

	res := f.pipeline.Process(context.Background(), doc)
	if res.Error != MsgInvalidDocumentType {
		t.Fatalf("Error = %q, want %q", res.Error, MsgInvalidDocumentType)
	}
	if f.recognizer.calls != 0 || f.extractLLM.callCount() != 0 || f.enrichLLM.callCount() != 0 || f.searcher.queryCount() != 0 {
		t.Error("no external call may happen for an invalid document type")
	}

	b, _ := json.Marshal(res)
	if string(b) != `{"error":"Invalid document type selected."}` {
		t.Errorf("json = %s", b)
	}
}

func TestPipelineNoTextDetected(t *testing.T) {
	f := newPipelineFixture("   ", `{}`)

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if res.Error != MsgNoTextDetected || res.ImagePath != "card.jpg" {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.extractLLM.callCount() != 0 {
		t.Error("model must not be called without text")
	}
}

func TestPipelineOCRFailure(t *testing.T) {
	f := newPipelineFixture("", `{}`)
	f.recognizer.err = errors.New("failed to call Vision API: 403")

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if !res.Failed() || !strings.Contains(res.Error, "Vision API") {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.ImagePath != "" {
		t.Errorf("transport errors are top-level, got image_path %q", res.ImagePath)
	}
}

func TestPipelineInvalidModelOutput(t *testing.T) {
	f := newPipelineFixture("some text", "not json")

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if res.Error != MsgInvalidModelOutput || res.ImagePath != "card.jpg" {
		t.Fatalf("unexpected result %+v", res)
	}
	b, _ := json.Marshal(res)
	if string(b) != `{"error":"Invalid JSON response from the language model.","image_path":"card.jpg"}` {
		t.Errorf("json = %s", b)
	}
}

func TestPipelineScenarioNoSearchResults(t *testing.T) {
	f := newPipelineFixture("1 2345 67890 12 3 นาย สมชาย ใจดี", `{"Name": "สมชาย ใจดี", "Eng_Name": "SOMCHAI JAIDEE"}`)

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if res.Failed() {
		t.Fatalf("unexpected failure %q", res.Error)
	}
	if v := res.JSONData[models.IDCardField]; v != nil {
		t.Errorf("ID_Card = %q, want null for failing checksum", *v)
	}
	if res.OtherInfo == nil {
		t.Fatal("enrichment should run when Name is present")
	}
	if res.OtherInfo.Err() != "" {
		t.Fatalf("no results is not an error: %q", res.OtherInfo.Err())
	}
	for _, field := range EnrichmentFields {
		if res.OtherInfo[field] != nil {
			t.Errorf("%s should be null", field)
		}
	}
	if f.enrichLLM.callCount() != 0 {
		t.Error("synthesis should be skipped without evidence")
	}
}

func TestPipelineValidIDAndEnrichment(t *testing.T) {
	f := newPipelineFixture("1 2345 67890 12 1 นาย สมชาย ใจดี", `{"Name": "สมชาย ใจดี"}`)
	f.searcher.results = map[string]models.SearchResult{"สมชาย ใจดี": thaiEvidence}

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if res.Failed() {
		t.Fatalf("unexpected failure %q", res.Error)
	}
	if got, _ := res.JSONData.Get(models.IDCardField); got != "1234567890121" {
		t.Errorf("ID_Card = %q", got)
	}
	if v := res.OtherInfo["Current_Occupation"]; v == nil || *v != "วิศวกร" {
		t.Errorf("Current_Occupation = %v", v)
	}
	if f.searcher.queryCount() != 1 {
		t.Errorf("missing Eng_Name should only search the Thai name, got %d queries", f.searcher.queryCount())
	}
	if !strings.Contains(f.enrichLLM.calls[0].User, "English name .") {
		t.Error("missing Eng_Name should be passed as an empty string")
	}
}

func TestPipelineNoNameSkipsEnrichment(t *testing.T) {
	f := newPipelineFixture("ทะเบียนรถ กข 1234", `{"Car_Plate_Number": "กข 1234", "Name": null}`)
	doc := idCardDoc()
	doc.Type = models.DocumentCarRegistration

	res := f.pipeline.Process(context.Background(), doc)
	if res.Failed() {
		t.Fatalf("unexpected failure %q", res.Error)
	}
	if res.OtherInfo != nil {
		t.Errorf("other_info should be null, got %v", res.OtherInfo)
	}
	if f.searcher.queryCount() != 0 {
		t.Error("no search should run without a name")
	}

	var decoded map[string]json.RawMessage
	b, _ := json.Marshal(res)
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if string(decoded["other_info"]) != "null" {
		t.Errorf("other_info = %s, want explicit null", decoded["other_info"])
	}
	if _, ok := decoded["error"]; ok {
		t.Error("success shape must not carry an error key")
	}
}

func TestPipelineEnrichmentProviderError(t *testing.T) {
	f := newPipelineFixture("นาย สมชาย ใจดี", `{"Name": "สมชาย ใจดี"}`)
	f.searcher.results = map[string]models.SearchResult{"สมชาย ใจดี": thaiEvidence}
	f.enrichLLM.err = errors.New("rate limited")

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if !res.Failed() || !strings.Contains(res.Error, "rate limited") {
		t.Fatalf("enrichment model failure should be a top-level error, got %+v", res)
	}

	b, _ := json.Marshal(res)
	if string(b) != `{"error":"enrichment model call failed: rate limited"}` {
		t.Errorf("json = %s", b)
	}
}

func TestPipelineEnrichmentParseFailureKeepsExtraction(t *testing.T) {
	f := newPipelineFixture("นาย สมชาย ใจดี", `{"Name": "สมชาย ใจดี"}`)
	f.searcher.results = map[string]models.SearchResult{"สมชาย ใจดี": thaiEvidence}
	f.enrichLLM.responses = []string{"not json"}

	res := f.pipeline.Process(context.Background(), idCardDoc())
	if res.Failed() {
		t.Fatalf("unexpected failure %q", res.Error)
	}
	if got, _ := res.JSONData.Get("Name"); got != "สมชาย ใจดี" {
		t.Errorf("Name = %q", got)
	}
	if res.OtherInfo.Err() != MsgEnrichmentParseFailed {
		t.Errorf("other_info = %v, want parse failure sentinel", res.OtherInfo)
	}
}

type blockingRecognizer struct{}

func (blockingRecognizer) Name() string { return "blocking" }

func (blockingRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPipelineTimeout(t *testing.T) {
	p := NewPipeline(blockingRecognizer{}, NewExtractor(&fakeLLM{}, "m"), NewEnricher(&fakeSearcher{}, &fakeLLM{}, "m", 5), 20*time.Millisecond)

	done := make(chan models.PipelineResult, 1)
	go func() { done <- p.Process(context.Background(), idCardDoc()) }()

	select {
	case res := <-done:
		if !strings.Contains(res.Error, context.DeadlineExceeded.Error()) {
			t.Errorf("Error = %q, want deadline exceeded", res.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not honour its timeout")
	}
}
