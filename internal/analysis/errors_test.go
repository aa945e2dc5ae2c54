package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := &Error{Kind: KindServerRejected, Message: "bad", StatusCode: 400}

	assert.ErrorIs(t, err, ErrServerRejected)
	assert.NotErrorIs(t, err, ErrNetwork)

	wrapped := fmt.Errorf("submitting: %w", err)
	assert.ErrorIs(t, wrapped, ErrServerRejected)
	assert.Equal(t, KindServerRejected, KindOf(wrapped))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := &Error{Kind: KindNetwork, Message: "request cancelled", Err: context.Canceled}
	err := &Error{Kind: KindUploadFailed, Message: "failed to upload image", Err: cause}

	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindUploadFailed, KindOf(err))
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"explicit message", &Error{Kind: KindInvalidInput, Message: "Please upload an image file"}, "Please upload an image file"},
		{"default message", &Error{Kind: KindJobNotFound}, "job not found"},
		{"poll timeout default", &Error{Kind: KindPollTimeout}, "Analysis timeout - please try again"},
		{"with cause", &Error{Kind: KindNetwork, Message: "request failed", Err: errors.New("dial tcp: refused")}, "request failed: dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestNewAnalysisFailed(t *testing.T) {
	err := NewAnalysisFailed("no items visible")
	assert.Equal(t, "no items visible", err.Error())
	assert.ErrorIs(t, err, ErrAnalysisFailed)

	err = NewAnalysisFailed("")
	assert.Equal(t, DefaultAnalysisFailedMessage, err.Error())
}
