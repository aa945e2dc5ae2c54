package analysis

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// JobStatus is the server-reported state of an analysis job.
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ParseJobStatus maps a raw wire value onto a JobStatus. Anything outside the
// known set yields an UnknownStatus error so callers never poll forever on a
// value they don't understand.
func ParseJobStatus(raw string) (JobStatus, error) {
	switch JobStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusProcessing:
		return StatusProcessing, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusFailed:
		return StatusFailed, nil
	}
	return "", &Error{
		Kind:    KindUnknownStatus,
		Message: fmt.Sprintf("unrecognized job status %q", raw),
	}
}

// IsTerminal reports whether no further state change is expected.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s JobStatus) String() string {
	return string(s)
}

// UploadJob is the client's handle on a submitted image.
type UploadJob struct {
	ID        string
	CreatedAt time.Time
	Status    JobStatus
}

// MatchedProduct is a shop listing that resembles a detected item.
type MatchedProduct struct {
	ID          string
	ProductID   string
	Name        string
	Category    string
	Brand       string
	Price       float64
	ImageURL    string
	ShopURL     string
	Tags        []string
	Description string
	Color       string
	Style       string
}

// DetectedItem is one piece of clothing found in the uploaded photo.
// MatchedProducts keeps the server's order, which is not sorted by price.
type DetectedItem struct {
	ID              string
	Category        string
	Color           string
	Style           string
	Description     string
	MatchedProducts []MatchedProduct
}

// AnalysisResult is the read-only projection of a job, refreshed by polling.
// Error is non-empty only when Status is StatusFailed.
type AnalysisResult struct {
	JobID         string
	Status        JobStatus
	UploadDate    time.Time
	ImageBase64   string
	ImageMimeType string
	DetectedItems []DetectedItem
	Error         string
}

// DataURL returns the original image as an inline data URL.
func (r *AnalysisResult) DataURL() string {
	if r.ImageBase64 == "" {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", r.ImageMimeType, r.ImageBase64)
}

// DecodeImage returns the raw bytes of the original image.
func (r *AnalysisResult) DecodeImage() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return data, nil
}

// ImageFile is a local image about to be submitted.
type ImageFile struct {
	Name        string
	Data        []byte
	ContentType string
}
