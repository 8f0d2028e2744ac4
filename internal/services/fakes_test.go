package services

import (
	"context"
	"errors"
	"sync"

	"ID-ENRICH/internal/models"
)

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []CompletionRequest
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeLLM: no response scripted")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string]models.SearchResult
	errs    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) (models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	if r, ok := f.results[query]; ok {
		return r, nil
	}
	return models.SearchResult{}, nil
}

func (f *fakeSearcher) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeRecognizer struct {
	text  string
	err   error
	calls int
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

func strPtr(s string) *string { return &s }
