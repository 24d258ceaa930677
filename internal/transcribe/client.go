// Package transcribe provides an HTTP client for a remote asynchronous
// transcription service, implementing the core.SpeechToText capability.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/translation-pipeline/internal/core"
)

// API endpoints and paths.
const (
	apiTranscriptions = "/v1/transcriptions"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Static errors.
var (
	ErrJobNameEmpty     = errors.New("job name cannot be empty")
	ErrSourceKeyEmpty   = errors.New("source key cannot be empty")
	ErrUnknownJobStatus = errors.New("transcription service reported an unknown job status")
	ErrUnexpectedSubmit = errors.New("transcription service rejected the submission")
	ErrUnexpectedStatus = errors.New("transcription service returned non-OK status")
)

// Client is an HTTP client for the transcription service. Submit starts a
// job; JobStatus reports its lifecycle state.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a transcription service client. The baseURL should
// include the protocol and port (e.g., "http://localhost:8100"). The timeout
// applies to every HTTP request made by this client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// submitRequest is the JSON payload for starting a transcription job.
type submitRequest struct {
	JobName string `json:"job_name"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
}

// jobResponse is the JSON shape the service reports for a job.
type jobResponse struct {
	JobName       string `json:"job_name"`
	Status        string `json:"status"`
	TranscriptKey string `json:"transcript_key,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Submit starts an asynchronous transcription job for the object at
// bucket/key. The service stores the finished transcript in the object store
// and reports its key through JobStatus.
func (c *Client) Submit(ctx context.Context, jobName, bucket, key string) error {
	if jobName == "" {
		return ErrJobNameEmpty
	}

	if key == "" {
		return ErrSourceKeyEmpty
	}

	payload := submitRequest{JobName: jobName, Bucket: bucket, Key: key}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal submit request: %w", err)
	}

	url := c.baseURL + apiTranscriptions

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create submit request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send submit request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("%w: %s, body: %s", ErrUnexpectedSubmit, resp.Status, string(body))
	}

	return nil
}

// JobStatus queries the current state of a transcription job.
func (c *Client) JobStatus(ctx context.Context, jobName string) (core.TranscriptionJob, error) {
	if jobName == "" {
		return core.TranscriptionJob{}, ErrJobNameEmpty
	}

	url := c.baseURL + apiTranscriptions + "/" + jobName

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return core.TranscriptionJob{}, fmt.Errorf("failed to create status request: %w", err)
	}

	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.TranscriptionJob{}, fmt.Errorf("failed to query job %q at %s: %w", jobName, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return core.TranscriptionJob{}, fmt.Errorf(
			"%w: %s, body: %s", ErrUnexpectedStatus, resp.Status, string(body),
		)
	}

	var job jobResponse

	err = json.NewDecoder(resp.Body).Decode(&job)
	if err != nil {
		return core.TranscriptionJob{}, fmt.Errorf("failed to decode job status response: %w", err)
	}

	status, err := parseJobStatus(job.Status)
	if err != nil {
		return core.TranscriptionJob{}, err
	}

	return core.TranscriptionJob{
		JobName:       job.JobName,
		Status:        status,
		TranscriptKey: job.TranscriptKey,
		FailureReason: job.FailureReason,
	}, nil
}

func parseJobStatus(raw string) (core.JobStatus, error) {
	switch core.JobStatus(raw) {
	case core.JobStatusInProgress, core.JobStatusCompleted, core.JobStatusFailed:
		return core.JobStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownJobStatus, raw)
	}
}
