package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL   = "http://localhost:8080/api"
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "outfit-finder/1.0"
)

type ClientOpts struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// HTTPClient talks to the analysis backend. It performs exactly one request
// per call and never retries.
type HTTPClient struct {
	httpClient *resty.Client
	baseURL    string
}

func NewHTTPClient(opts ClientOpts) *HTTPClient {
	c := HTTPClient{baseURL: DefaultBaseURL}
	if opts.BaseURL != "" {
		c.baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	timeout := DefaultTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	userAgent := defaultUserAgent
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(c.baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": userAgent,
		})

	return &c
}

// BaseURL returns the resolved API base URL.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) req(ctx context.Context, result any) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx)

	if result != nil {
		request.SetResult(result)
	}

	return request
}

// Submit uploads one image as multipart form data.
func (c *HTTPClient) Submit(ctx context.Context, file ImageFile) (*UploadJob, error) {
	result := &UploadResponse{}
	name := file.Name
	if name == "" {
		name = "image"
	}

	res, err := handleError(c.req(ctx, result).
		SetMultipartField("image", name, file.ContentType, bytes.NewReader(file.Data)).
		Post("/upload"))
	if err != nil {
		return nil, err
	}

	if result.UploadID == "" && len(res.Body()) > 0 {
		// resty only decodes JSON content types; fall back to the raw body.
		if err := json.Unmarshal(res.Body(), result); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Message: "failed to decode upload response", Err: err}
		}
	}

	if result.UploadID == "" {
		return nil, &Error{
			Kind:    KindInvalidResponse,
			Message: fmt.Sprintf("upload response has no uploadId (status %d)", res.StatusCode()),
		}
	}

	// The initial status is informational; a job is always tracked through
	// FetchResult, so an unexpected value here only gets logged.
	status, err := ParseJobStatus(result.Status)
	if err != nil {
		log.Warn().Str("jobID", result.UploadID).Str("status", result.Status).Msg("unexpected status in upload response")
		status = StatusProcessing
	}

	return &UploadJob{
		ID:        result.UploadID,
		CreatedAt: time.Now(),
		Status:    status,
	}, nil
}

// FetchResult returns whatever the server currently reports for the job,
// including StatusProcessing.
func (c *HTTPClient) FetchResult(ctx context.Context, jobID string) (*AnalysisResult, error) {
	result := &AnalysisResponse{}

	res, err := handleError(c.req(ctx, result).
		SetPathParams(map[string]string{
			"uploadId": jobID,
		}).
		Get("/analysis/{uploadId}"))
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.StatusCode == http.StatusNotFound {
			e.Kind = KindJobNotFound
			if e.Message == "" {
				e.Message = fmt.Sprintf("job %s not found", jobID)
			}
		}
		return nil, err
	}

	if result.Status == "" {
		// resty only decodes JSON content types; fall back to the raw body.
		if err := json.Unmarshal(res.Body(), result); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Message: "failed to decode analysis response", Err: err}
		}
	}

	return result.ToResult(jobID)
}

// Ping checks that something answers HTTP at the base URL. Any response,
// even an error status, counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.req(ctx, nil).Get("/health")
	if err != nil {
		return classifyError(err)
	}
	return nil
}

// handleError turns transport failures into NetworkError, undecodable bodies
// into InvalidResponse and >399 responses into ServerRejected. Without it,
// failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		if isDecodeError(res, err) {
			return res, &Error{Kind: KindInvalidResponse, Message: "failed to decode response", Err: err}
		}
		return res, classifyError(err)
	}
	if res.IsError() {
		return res, &Error{
			Kind:       KindServerRejected,
			Message:    rejectionMessage(res),
			StatusCode: res.StatusCode(),
		}
	}

	return res, nil
}

// classifyError maps a transport-level failure to NetworkError, keeping the
// cause in the chain for errors.Is checks on context errors and net.Error.
func classifyError(err error) error {
	msg := "request failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	} else if errors.Is(err, context.Canceled) {
		msg = "request cancelled"
	}
	return &Error{Kind: KindNetwork, Message: msg, Err: err}
}

// isDecodeError reports whether err came from decoding a body the server did
// send, as opposed to the request not completing.
func isDecodeError(res *resty.Response, err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return true
	}
	if res == nil || res.RawResponse == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return !errors.As(err, &netErr)
}

func rejectionMessage(res *resty.Response) string {
	body := res.Body()
	var payload errorResponse
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		return text
	}
	return fmt.Sprintf("%s %s (status: %d %s)", res.Request.Method, res.Request.URL, res.StatusCode(), http.StatusText(res.StatusCode()))
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
