package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDownloadTimeout is the default timeout for image downloads
	DefaultDownloadTimeout = 30 * time.Second
	// DefaultMaxImageSize is the default maximum image size (10MB)
	DefaultMaxImageSize = 10 * 1024 * 1024
)

// Loader reads images from disk or downloads them over http(s).
// It reports the content type but does not judge it; that is left to the
// workflow.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	maxSize int64
}

// NewLoader creates a new Loader with default settings.
func NewLoader() *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: DefaultDownloadTimeout,
		},
		timeout: DefaultDownloadTimeout,
		maxSize: DefaultMaxImageSize,
	}
}

// WithTimeout sets a custom timeout for downloads.
func (l *Loader) WithTimeout(timeout time.Duration) *Loader {
	l.timeout = timeout
	l.client.Timeout = timeout
	return l
}

// WithMaxSize sets a custom maximum file size.
func (l *Loader) WithMaxSize(maxSize int64) *Loader {
	if maxSize > 0 {
		l.maxSize = maxSize
	}
	return l
}

// IsURL reports whether ref should be downloaded rather than read from disk.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Load reads ref as a URL or a file path.
func (l *Loader) Load(ctx context.Context, ref string) (analysis.ImageFile, error) {
	if IsURL(ref) {
		return l.DownloadFromURL(ctx, ref)
	}
	return l.LoadFile(ref)
}

// LoadFile reads an image from disk, enforcing the size limit.
func (l *Loader) LoadFile(filePath string) (analysis.ImageFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return analysis.ImageFile{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	data, err := l.readLimited(f)
	if err != nil {
		return analysis.ImageFile{}, err
	}

	return analysis.ImageFile{
		Name:        filepath.Base(filePath),
		Data:        data,
		ContentType: mimetype.Detect(data).String(),
	}, nil
}

// DownloadFromURL downloads image data from a URL.
// It respects context cancellation and enforces size limits.
func (l *Loader) DownloadFromURL(ctx context.Context, imageURL string) (analysis.ImageFile, error) {
	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return analysis.ImageFile{}, fmt.Errorf("failed to create request: %w", err)
	}

	log.Debug().Str("url", imageURL).Msg("downloading image")
	resp, err := l.client.Do(req)
	if err != nil {
		return analysis.ImageFile{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analysis.ImageFile{}, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	// Check Content-Length if available
	if resp.ContentLength > l.maxSize {
		return analysis.ImageFile{}, fmt.Errorf("image too large: %d bytes exceeds limit of %d bytes", resp.ContentLength, l.maxSize)
	}

	data, err := l.readLimited(resp.Body)
	if err != nil {
		return analysis.ImageFile{}, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	return analysis.ImageFile{
		Name:        nameFromURL(imageURL),
		Data:        data,
		ContentType: contentType,
	}, nil
}

// readLimited uses a LimitReader so the limit holds even if Content-Length is
// missing or wrong.
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("image too large: exceeds limit of %d bytes", l.maxSize)
	}
	return data, nil
}

func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "image"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
