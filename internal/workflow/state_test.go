package workflow

import (
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsTerminal(t *testing.T) {
	for _, s := range []State{StateIdle, StateUploading, StatePolling} {
		assert.False(t, s.IsTerminal(), s)
	}
	for _, s := range []State{StateCompleted, StateFailed, StateTimedOut, StateErrored, StateCancelled} {
		assert.True(t, s.IsTerminal(), s)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(StateIdle, StateUploading))
	assert.True(t, canTransition(StateUploading, StatePolling))
	assert.True(t, canTransition(StatePolling, StateTimedOut))
	assert.True(t, canTransition(StateCompleted, StateIdle))

	assert.False(t, canTransition(StateIdle, StateCompleted))
	assert.False(t, canTransition(StateCompleted, StatePolling))
	assert.False(t, canTransition(StateUploading, StateCompleted))
	assert.False(t, canTransition(StatePolling, StateUploading))
}

func TestEveryTerminalStateReturnsToIdle(t *testing.T) {
	for from, targets := range validTransitions {
		if !from.IsTerminal() {
			continue
		}
		assert.Equal(t, []State{StateIdle}, targets, from)
	}
}

func TestValidateImage(t *testing.T) {
	mediaType, err := ValidateImage(analysis.ImageFile{Data: []byte("x"), ContentType: "image/png; charset=binary"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)

	// The declared type wins over sniffing.
	mediaType, err = ValidateImage(analysis.ImageFile{Data: []byte("not really a webp"), ContentType: "image/webp"})
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mediaType)

	_, err = ValidateImage(analysis.ImageFile{Data: []byte("hello"), ContentType: "text/plain"})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)

	_, err = ValidateImage(analysis.ImageFile{Data: []byte("hello")})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput, "sniffed %s", mimetype.Detect([]byte("hello")))

	_, err = ValidateImage(analysis.ImageFile{Data: []byte("x"), ContentType: ";;;"})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestJobLog_NilIsNoop(t *testing.T) {
	var l *JobLog
	assert.NotPanics(t, func() {
		l.Start("job-1", "a.jpg")
		l.State("job-1", "%s -> %s", StateIdle, StateUploading)
		l.API("job-1", "poll %d", 1)
		l.Error("job-1", "boom")
	})
}

func TestJobLog_PathSanitizesID(t *testing.T) {
	l, err := NewJobLog(t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, l.Path("../../etc/passwd"), "job_.._.._etc_passwd.log")
}
