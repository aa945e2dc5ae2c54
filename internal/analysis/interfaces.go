package analysis

import "context"

// Client abstracts the two remote operations of the analysis backend.
// Implementations surface failures verbatim and never retry.
type Client interface {
	// Submit uploads an image and returns the server-assigned job.
	Submit(ctx context.Context, file ImageFile) (*UploadJob, error)

	// FetchResult returns the job's current state, including StatusProcessing.
	FetchResult(ctx context.Context, jobID string) (*AnalysisResult, error)
}
