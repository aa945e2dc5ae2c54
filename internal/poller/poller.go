package poller

import (
	"context"
	"time"

	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxAttempts is the number of fetches made before giving up.
	DefaultMaxAttempts = 30

	// DefaultInterval is the wait between two fetches of the same job.
	DefaultInterval = 2 * time.Second
)

// Fetcher is the part of the transport the poller needs.
type Fetcher interface {
	FetchResult(ctx context.Context, jobID string) (*analysis.AnalysisResult, error)
}

// ProgressFunc is notified once per non-terminal observation.
type ProgressFunc func(status analysis.JobStatus)

// Poller fetches a job until it reaches a terminal status or the attempt
// budget runs out. A Poller holds no per-job state and can be reused.
type Poller struct {
	fetcher     Fetcher
	maxAttempts int
	interval    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// New creates a Poller with default settings.
func New(fetcher Fetcher) *Poller {
	return &Poller{
		fetcher:     fetcher,
		maxAttempts: DefaultMaxAttempts,
		interval:    DefaultInterval,
		sleep:       sleepContext,
	}
}

// WithMaxAttempts sets the attempt budget. Values below 1 are ignored.
func (p *Poller) WithMaxAttempts(n int) *Poller {
	if n > 0 {
		p.maxAttempts = n
	}
	return p
}

// WithInterval sets the delay between fetches. Negative values are ignored.
func (p *Poller) WithInterval(d time.Duration) *Poller {
	if d >= 0 {
		p.interval = d
	}
	return p
}

// MaxAttempts returns the configured attempt budget.
func (p *Poller) MaxAttempts() int {
	return p.maxAttempts
}

// Interval returns the configured delay between fetches.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Poll fetches the job until it completes, fails or the budget is exhausted.
//
// Transport failures are returned as-is on the first occurrence. A failed job
// yields an AnalysisFailed error and a job still processing after MaxAttempts
// fetches yields PollTimeout. Cancelling ctx stops the loop at the next
// suspension boundary; the context error is returned and onProgress is not
// called again.
func (p *Poller) Poll(ctx context.Context, jobID string, onProgress ProgressFunc) (*analysis.AnalysisResult, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			log.Debug().Str("jobID", jobID).Int("attempt", attempt).Msg("poll cancelled before fetch")
			return nil, err
		}

		result, err := p.fetcher.FetchResult(ctx, jobID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The answer to an abandoned request is dropped, whatever it was.
			log.Debug().Str("jobID", jobID).Int("attempt", attempt).Msg("poll cancelled during fetch")
			return nil, ctxErr
		}
		if err != nil {
			log.Debug().Err(err).Str("jobID", jobID).Int("attempt", attempt).Msg("fetch failed")
			return nil, err
		}

		switch result.Status {
		case analysis.StatusCompleted:
			log.Debug().Str("jobID", jobID).Int("attempt", attempt).Msg("job completed")
			return result, nil
		case analysis.StatusFailed:
			log.Debug().Str("jobID", jobID).Int("attempt", attempt).Str("reason", result.Error).Msg("job failed")
			return nil, analysis.NewAnalysisFailed(result.Error)
		case analysis.StatusProcessing:
			log.Debug().Str("jobID", jobID).Int("attempt", attempt).Int("maxAttempts", p.maxAttempts).Msg("job still processing")
			if onProgress != nil {
				onProgress(analysis.StatusProcessing)
			}
		default:
			// Fetchers are expected to reject these already.
			_, err := analysis.ParseJobStatus(string(result.Status))
			return nil, err
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			log.Debug().Str("jobID", jobID).Int("attempt", attempt).Msg("poll cancelled while waiting")
			return nil, err
		}
	}

	return nil, &analysis.Error{
		Kind:    analysis.KindPollTimeout,
		Message: "Analysis timeout - please try again",
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
