package services_test

import (
	"context"
	"strings"
	"sync"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

// fakeCompletion answers by the first matching prompt substring
type fakeCompletion struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	embedFn   func(text string) ([]float32, error)
	requests  []providers.CompletionRequest
}

func newFakeCompletion() *fakeCompletion {
	return &fakeCompletion{responses: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCompletion) on(substr, response string) *fakeCompletion {
	f.responses[substr] = response
	return f
}

func (f *fakeCompletion) fail(substr string, err error) *fakeCompletion {
	f.errs[substr] = err
	return f
}

func (f *fakeCompletion) Classify(ctx context.Context, prompt string) (string, error) {
	return f.Complete(ctx, providers.CompletionRequest{Model: "classifier", Prompt: prompt})
}

func (f *fakeCompletion) Complete(_ context.Context, req providers.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	for substr, err := range f.errs {
		if strings.Contains(req.Prompt, substr) {
			return "", err
		}
	}
	for substr, resp := range f.responses {
		if strings.Contains(req.Prompt, substr) {
			return resp, nil
		}
	}
	return "", nil
}

func (f *fakeCompletion) Embed(_ context.Context, text, _ string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	return []float32{1, 0}, nil
}

func (f *fakeCompletion) requestsMatching(substr string) []providers.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []providers.CompletionRequest
	for _, r := range f.requests {
		if strings.Contains(r.Prompt, substr) {
			out = append(out, r)
		}
	}
	return out
}

// fakeBackend replays statuses in order; the last one repeats
type fakeBackend struct {
	mu        sync.Mutex
	statuses  []entities.ExecutionStatus
	rows      [][]any
	submitErr error
	pollErr   error
	polls     int
	submitted []string
}

func (b *fakeBackend) Submit(_ context.Context, sql string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return "", b.submitErr
	}
	b.submitted = append(b.submitted, sql)
	return "handle-1", nil
}

func (b *fakeBackend) PollStatus(_ context.Context, _ string) (entities.ExecutionStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pollErr != nil {
		return "", b.pollErr
	}
	i := b.polls
	if i >= len(b.statuses) {
		i = len(b.statuses) - 1
	}
	b.polls++
	return b.statuses[i], nil
}

func (b *fakeBackend) FetchRows(_ context.Context, _ string) ([][]any, error) {
	return b.rows, nil
}

func (b *fakeBackend) submittedSQL() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.submitted...)
}

// cancellableBackend records cancelled handles
type cancellableBackend struct {
	*fakeBackend
	cancelled []string
}

func (b *cancellableBackend) Cancel(_ context.Context, handle string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelled = append(b.cancelled, handle)
	return nil
}

func (b *cancellableBackend) cancelledHandles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.cancelled...)
}

// fakeDocumentIndex returns fixed candidates per query vector
type fakeDocumentIndex struct {
	candidates func(vector []float32) ([]entities.ScoredDocument, error)
}

func (f *fakeDocumentIndex) EnsureIndex(context.Context, int, entities.VectorMetric) error {
	return nil
}

func (f *fakeDocumentIndex) Candidates(_ context.Context, vector []float32, _ int) ([]entities.ScoredDocument, error) {
	return f.candidates(vector)
}

func (f *fakeDocumentIndex) Upsert(context.Context, entities.Document, []float32) error {
	return nil
}

type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

