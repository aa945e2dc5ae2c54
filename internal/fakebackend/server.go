// Package fakebackend is a scripted stand-in for the outfit analysis API.
// It speaks the same wire format as the real service and is used for local
// development and end-to-end tests.
package fakebackend

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/rs/zerolog/log"
)

// DefaultMaxUploadSize bounds the multipart body accepted by /upload.
const DefaultMaxUploadSize = 10 * 1024 * 1024

// Scenario scripts how every uploaded job evolves.
type Scenario struct {
	// ProcessingPolls is how many fetches answer "processing" before the job
	// settles.
	ProcessingPolls int
	// Fail settles the job as failed with FailReason instead of completed.
	Fail       bool
	FailReason string
	// Items are returned for completed jobs.
	Items []analysis.DetectedItemPayload
}

type job struct {
	id        string
	mimeType  string
	image     string
	createdAt time.Time
	polls     int
}

// Server holds uploaded jobs in memory.
type Server struct {
	mu       sync.Mutex
	jobs     map[string]*job
	scenario Scenario
	maxSize  int64
	newID    func() string
}

// New creates a server that plays scenario for every upload.
func New(scenario Scenario) *Server {
	return &Server{
		jobs:     make(map[string]*job),
		scenario: scenario,
		maxSize:  DefaultMaxUploadSize,
		newID:    func() string { return uuid.New().String() },
	}
}

// WithMaxUploadSize overrides the accepted upload size.
func (s *Server) WithMaxUploadSize(n int64) *Server {
	if n > 0 {
		s.maxSize = n
	}
	return s
}

// Polls returns how many times a job has been fetched.
func (s *Server) Polls(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		return j.polls
	}
	return 0
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := newRouter()

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/upload", s.handleUpload)
	r.Get("/api/analysis/{uploadId}", s.handleAnalysis)

	return r
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxSize)
	if err := r.ParseMultipartForm(s.maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		writeError(w, http.StatusBadRequest, "Please upload an image file")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	j := &job{
		id:        s.newID(),
		mimeType:  mediaType,
		image:     base64.StdEncoding.EncodeToString(data),
		createdAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	log.Info().Str("uploadId", j.id).Str("file", header.Filename).Int("bytes", len(data)).Msg("upload accepted")
	writeJSON(w, http.StatusOK, analysis.UploadResponse{
		UploadID: j.id,
		Message:  "Image uploaded successfully",
		Status:   string(analysis.StatusProcessing),
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uploadId")

	s.mu.Lock()
	j, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Upload not found")
		return
	}
	j.polls++
	resp := s.responseFor(j)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// responseFor must be called with s.mu held.
func (s *Server) responseFor(j *job) analysis.AnalysisResponse {
	resp := analysis.AnalysisResponse{
		UploadID:      j.id,
		Status:        string(analysis.StatusProcessing),
		UploadDate:    j.createdAt.Format(time.RFC3339),
		ImageBase64:   j.image,
		ImageMimeType: j.mimeType,
		DetectedItems: []analysis.DetectedItemPayload{},
	}
	if j.polls <= s.scenario.ProcessingPolls {
		return resp
	}
	if s.scenario.Fail {
		resp.Status = string(analysis.StatusFailed)
		resp.Error = s.scenario.FailReason
		return resp
	}
	resp.Status = string(analysis.StatusCompleted)
	if s.scenario.Items != nil {
		resp.DetectedItems = s.scenario.Items
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
