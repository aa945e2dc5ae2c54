package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// JobLog writes a human-readable trace per job into a directory.
// A nil *JobLog is valid and discards everything.
type JobLog struct {
	dir string
}

// NewJobLog creates the directory if needed.
func NewJobLog(dir string) (*JobLog, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job log dir: %w", err)
	}
	return &JobLog{dir: dir}, nil
}

// Path returns the log file path for a job.
func (l *JobLog) Path(jobID string) string {
	return filepath.Join(l.dir, fmt.Sprintf("job_%s.log", unsafeFileChars.ReplaceAllString(jobID, "_")))
}

// Start truncates the log file for a job, starting a fresh log.
func (l *JobLog) Start(jobID, source string) {
	if l == nil {
		return
	}
	f, err := os.OpenFile(l.Path(jobID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Error().Err(err).Str("jobID", jobID).Msg("failed to start job log")
		return
	}
	defer f.Close()

	header := fmt.Sprintf("=== Job Log ===\nJob: %s\nSource: %s\nStarted: %s\n\n",
		jobID, source, time.Now().Format("2006-01-02 15:04:05"))
	f.WriteString(header)
}

func (l *JobLog) append(jobID, prefix, msg string) {
	if l == nil {
		return
	}
	f, err := os.OpenFile(l.Path(jobID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error().Err(err).Str("jobID", jobID).Msg("failed to write job log")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("15:04:05")
	f.WriteString(fmt.Sprintf("[%s] %s %s\n", timestamp, prefix, msg))
}

// State logs a state transition.
func (l *JobLog) State(jobID string, format string, args ...any) {
	l.append(jobID, "STATE", fmt.Sprintf(format, args...))
}

// API logs a remote call.
func (l *JobLog) API(jobID string, format string, args ...any) {
	l.append(jobID, "API  ", fmt.Sprintf(format, args...))
}

// Error logs a failure.
func (l *JobLog) Error(jobID string, format string, args ...any) {
	l.append(jobID, "ERROR", fmt.Sprintf(format, args...))
}
