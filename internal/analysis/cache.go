package analysis

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// ResultStore persists raw terminal results keyed by job id.
type ResultStore interface {
	GetCachedResult(jobID string) ([]byte, error)
	SetCachedResult(jobID string, status string, payload []byte) error
}

// CachedClient wraps a Client so terminal results are served from a local
// store. Processing results always go to the server.
type CachedClient struct {
	inner Client
	store ResultStore
}

// NewCachedClient creates a cached client.
func NewCachedClient(inner Client, store ResultStore) *CachedClient {
	return &CachedClient{inner: inner, store: store}
}

// Submit is never cached.
func (c *CachedClient) Submit(ctx context.Context, file ImageFile) (*UploadJob, error) {
	return c.inner.Submit(ctx, file)
}

// FetchResult implements the Client interface with caching.
func (c *CachedClient) FetchResult(ctx context.Context, jobID string) (*AnalysisResult, error) {
	if c.store != nil {
		if cached := c.lookup(jobID); cached != nil {
			return cached, nil
		}
	}

	result, err := c.inner.FetchResult(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if c.store != nil && result.Status.IsTerminal() {
		payload, err := json.Marshal(NewAnalysisResponse(result))
		if err != nil {
			log.Warn().Err(err).Str("jobID", jobID).Msg("failed to encode result for cache")
		} else if err := c.store.SetCachedResult(jobID, string(result.Status), payload); err != nil {
			log.Warn().Err(err).Str("jobID", jobID).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("jobID", jobID).Msg("cached analysis result")
		}
	}

	return result, nil
}

func (c *CachedClient) lookup(jobID string) *AnalysisResult {
	payload, err := c.store.GetCachedResult(jobID)
	if err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("failed to check result cache")
		return nil
	}
	if payload == nil {
		return nil
	}

	var resp AnalysisResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("discarding unreadable cached result")
		return nil
	}
	result, err := resp.ToResult(jobID)
	if err != nil || !result.Status.IsTerminal() {
		return nil
	}

	log.Debug().Str("jobID", jobID).Msg("result cache hit")
	return result
}

var _ Client = (*CachedClient)(nil)
