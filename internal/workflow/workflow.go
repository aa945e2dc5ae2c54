package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/raine/outfit-finder/internal/poller"
	"github.com/rs/zerolog/log"
)

// ErrBusy is returned when a flow is started on a workflow that is already
// running one.
var ErrBusy = errors.New("workflow already running")

// JobRecorder keeps a local history of submitted jobs.
type JobRecorder interface {
	RecordJob(jobID, fileName, mimeType string, createdAt time.Time) error
	FinishJob(jobID, outcome, status, errMsg string) error
}

// StateFunc is called on every state transition.
type StateFunc func(jobID string, from, to State)

// Workflow composes submission and polling into a single operation:
// Validate image → Submit → Poll until terminal → Return result.
//
// One Workflow runs at most one flow at a time. Independent workflows share
// nothing and can run concurrently.
type Workflow struct {
	client   analysis.Client
	poller   *poller.Poller
	recorder JobRecorder
	jobLog   *JobLog

	mu      sync.Mutex
	state   State
	jobID   string
	onState StateFunc

	active atomic.Bool
}

// New creates a Workflow that polls with default settings.
func New(client analysis.Client) *Workflow {
	return &Workflow{
		client: client,
		poller: poller.New(client),
		state:  StateIdle,
	}
}

// WithPolling overrides the attempt budget and interval.
func (w *Workflow) WithPolling(maxAttempts int, interval time.Duration) *Workflow {
	w.poller.WithMaxAttempts(maxAttempts).WithInterval(interval)
	return w
}

// WithRecorder sets the local job history.
func (w *Workflow) WithRecorder(r JobRecorder) *Workflow {
	w.recorder = r
	return w
}

// WithJobLog enables per-job trace files.
func (w *Workflow) WithJobLog(l *JobLog) *Workflow {
	w.jobLog = l
	return w
}

// OnStateChange replaces the state transition hook. Pass nil to remove it.
func (w *Workflow) OnStateChange(fn StateFunc) *Workflow {
	w.mu.Lock()
	w.onState = fn
	w.mu.Unlock()
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// JobID returns the id of the current or last job, if any.
func (w *Workflow) JobID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.jobID
}

// RunUploadFlow validates and submits file, then polls the new job until it
// reaches a terminal status.
//
// Failures carry an *analysis.Error: InvalidInput before any network call,
// UploadFailed (wrapping the transport error) when submission fails, and the
// poller's errors unchanged afterwards. If ctx is cancelled the context error
// is returned without a result.
func (w *Workflow) RunUploadFlow(ctx context.Context, file analysis.ImageFile, onProgress poller.ProgressFunc) (*analysis.AnalysisResult, error) {
	if !w.active.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer w.active.Store(false)
	w.reset("")

	mediaType, err := ValidateImage(file)
	if err != nil {
		log.Warn().Err(err).Str("file", file.Name).Msg("rejected upload")
		w.transition(StateErrored)
		return nil, err
	}
	file.ContentType = mediaType

	w.transition(StateUploading)
	job, err := w.client.Submit(ctx, file)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			w.transition(StateCancelled)
			return nil, ctxErr
		}
		log.Error().Err(err).Str("file", file.Name).Msg("image upload failed")
		w.transition(StateErrored)
		return nil, &analysis.Error{Kind: analysis.KindUploadFailed, Message: "failed to upload image", Err: err}
	}

	w.setJobID(job.ID)
	log.Info().Str("jobID", job.ID).Str("file", file.Name).Int("bytes", len(file.Data)).Msg("image submitted")

	w.jobLog.Start(job.ID, file.Name)
	w.jobLog.API(job.ID, "submitted %s (%s, %d bytes)", file.Name, mediaType, len(file.Data))
	if w.recorder != nil {
		if err := w.recorder.RecordJob(job.ID, file.Name, mediaType, job.CreatedAt); err != nil {
			log.Warn().Err(err).Str("jobID", job.ID).Msg("failed to record job")
		}
	}

	return w.poll(ctx, job.ID, onProgress)
}

// ResumeJob polls a previously submitted job. It shares all polling
// semantics with RunUploadFlow.
func (w *Workflow) ResumeJob(ctx context.Context, jobID string, onProgress poller.ProgressFunc) (*analysis.AnalysisResult, error) {
	if !w.active.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer w.active.Store(false)
	w.reset(jobID)

	if jobID == "" {
		w.transition(StateErrored)
		return nil, &analysis.Error{Kind: analysis.KindInvalidInput, Message: "job id is required"}
	}

	log.Info().Str("jobID", jobID).Msg("resuming job")
	w.jobLog.API(jobID, "resume")

	return w.poll(ctx, jobID, onProgress)
}

func (w *Workflow) poll(ctx context.Context, jobID string, onProgress poller.ProgressFunc) (*analysis.AnalysisResult, error) {
	w.transition(StatePolling)

	polls := 0
	progress := func(status analysis.JobStatus) {
		polls++
		w.jobLog.API(jobID, "poll %d: %s", polls, status)
		if onProgress != nil {
			onProgress(status)
		}
	}

	result, err := w.poller.Poll(ctx, jobID, progress)
	if err != nil {
		return nil, w.finish(ctx, jobID, err)
	}

	w.transition(StateCompleted)
	log.Info().Str("jobID", jobID).Int("items", len(result.DetectedItems)).Msg("analysis completed")
	w.record(jobID, StateCompleted, analysis.StatusCompleted, "")
	return result, nil
}

// finish maps a polling failure onto a terminal state and returns it unchanged.
func (w *Workflow) finish(ctx context.Context, jobID string, err error) error {
	var (
		state  State
		status analysis.JobStatus
	)
	switch {
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		state = StateCancelled
		log.Info().Str("jobID", jobID).Msg("polling cancelled")
	case errors.Is(err, analysis.ErrAnalysisFailed):
		state, status = StateFailed, analysis.StatusFailed
		log.Warn().Str("jobID", jobID).Str("reason", err.Error()).Msg("analysis failed")
	case errors.Is(err, analysis.ErrPollTimeout):
		state, status = StateTimedOut, analysis.StatusProcessing
		log.Warn().Str("jobID", jobID).Int("attempts", w.poller.MaxAttempts()).Msg("analysis timed out")
	default:
		state = StateErrored
		log.Error().Err(err).Str("jobID", jobID).Msg("polling failed")
	}

	w.transition(state)
	w.jobLog.Error(jobID, "%s: %v", state, err)
	w.record(jobID, state, status, err.Error())
	return err
}

func (w *Workflow) record(jobID string, state State, status analysis.JobStatus, errMsg string) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.FinishJob(jobID, string(state), string(status), errMsg); err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("failed to update job record")
	}
}

func (w *Workflow) reset(jobID string) {
	w.mu.Lock()
	w.jobID = jobID
	w.mu.Unlock()
	if w.State() != StateIdle {
		w.transition(StateIdle)
	}
}

func (w *Workflow) setJobID(jobID string) {
	w.mu.Lock()
	w.jobID = jobID
	w.mu.Unlock()
}

func (w *Workflow) transition(to State) {
	w.mu.Lock()
	from := w.state
	if !canTransition(from, to) {
		w.mu.Unlock()
		log.Error().Str("from", string(from)).Str("to", string(to)).Msg("invalid workflow transition")
		return
	}
	w.state = to
	jobID := w.jobID
	hook := w.onState
	w.mu.Unlock()

	if jobID != "" {
		w.jobLog.State(jobID, "%s -> %s", from, to)
	}
	if hook != nil {
		hook(jobID, from, to)
	}
}
