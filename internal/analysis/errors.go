package analysis

import (
	"errors"
	"fmt"
)

// Kind is the stable classification of a failure.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindNetwork         Kind = "network_error"
	KindServerRejected  Kind = "server_rejected"
	KindJobNotFound     Kind = "job_not_found"
	KindInvalidResponse Kind = "invalid_response"
	KindUnknownStatus   Kind = "unknown_status"
	KindUploadFailed    Kind = "upload_failed"
	KindAnalysisFailed  Kind = "analysis_failed"
	KindPollTimeout     Kind = "poll_timeout"
)

// Sentinel errors, matched by kind with errors.Is.
var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrServerRejected  = &Error{Kind: KindServerRejected}
	ErrJobNotFound     = &Error{Kind: KindJobNotFound}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrUnknownStatus   = &Error{Kind: KindUnknownStatus}
	ErrUploadFailed    = &Error{Kind: KindUploadFailed}
	ErrAnalysisFailed  = &Error{Kind: KindAnalysisFailed}
	ErrPollTimeout     = &Error{Kind: KindPollTimeout}
)

// DefaultAnalysisFailedMessage is used when a failed job carries no reason.
const DefaultAnalysisFailedMessage = "Analysis failed"

// Error is the typed failure returned by the job client.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // HTTP status for server rejections, 0 otherwise
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or "" if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NewAnalysisFailed builds the error for a job that reached the failed state.
func NewAnalysisFailed(reason string) *Error {
	if reason == "" {
		reason = DefaultAnalysisFailedMessage
	}
	return &Error{Kind: KindAnalysisFailed, Message: reason}
}

func defaultMessage(k Kind) string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindNetwork:
		return "network error"
	case KindServerRejected:
		return "server rejected request"
	case KindJobNotFound:
		return "job not found"
	case KindInvalidResponse:
		return "invalid server response"
	case KindUnknownStatus:
		return "unknown job status"
	case KindUploadFailed:
		return "upload failed"
	case KindAnalysisFailed:
		return DefaultAnalysisFailedMessage
	case KindPollTimeout:
		return "Analysis timeout - please try again"
	}
	return string(k)
}
