package analysis

import (
	"context"
	"sync"
	"time"
)

// MockClient is a test double for Client.
// Each method can be overridden with a custom function.
// If not overridden, methods return sensible defaults.
// Thread-safe for use in concurrent tests.
type MockClient struct {
	SubmitFunc      func(ctx context.Context, file ImageFile) (*UploadJob, error)
	FetchResultFunc func(ctx context.Context, jobID string) (*AnalysisResult, error)

	mu sync.Mutex

	// Calls tracks all method invocations for assertions
	Calls []MockCall
}

// MockCall records a method call for test assertions.
type MockCall struct {
	Method string
	Args   []any
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)

func (m *MockClient) Submit(ctx context.Context, file ImageFile) (*UploadJob, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "Submit", Args: []any{file.Name, file.ContentType, len(file.Data)}})
	fn := m.SubmitFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, file)
	}
	return &UploadJob{
		ID:        "mock-job-id",
		CreatedAt: time.Now(),
		Status:    StatusProcessing,
	}, nil
}

func (m *MockClient) FetchResult(ctx context.Context, jobID string) (*AnalysisResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "FetchResult", Args: []any{jobID}})
	fn := m.FetchResultFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, jobID)
	}
	return &AnalysisResult{
		JobID:         jobID,
		Status:        StatusCompleted,
		DetectedItems: []DetectedItem{},
	}, nil
}

// CallCount returns how many times the named method was invoked.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// FetchSequence returns a FetchResultFunc that replays results in order and
// keeps returning the last one once the sequence is exhausted.
func FetchSequence(results ...*AnalysisResult) func(ctx context.Context, jobID string) (*AnalysisResult, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, jobID string) (*AnalysisResult, error) {
		mu.Lock()
		defer mu.Unlock()
		r := results[i]
		if i < len(results)-1 {
			i++
		}
		copied := *r
		copied.JobID = jobID
		return &copied, nil
	}
}
