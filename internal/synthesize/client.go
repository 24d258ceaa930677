// Package synthesize provides an HTTP client for a remote speech synthesis
// service, implementing the core.SpeechSynthesizer capability.
package synthesize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiSpeech = "/v1/speech"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeMP3    = "audio/mpeg"
)

// Static errors.
var (
	ErrTextEmpty             = errors.New("text cannot be empty")
	ErrVoiceEmpty            = errors.New("voice cannot be empty")
	ErrReceivedEmptyAudio    = errors.New("received empty audio data")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrUnexpectedStatus      = errors.New("synthesis service returned non-OK status")
)

// Client is an HTTP client for the speech synthesis service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	format     string
}

// NewClient creates a synthesis service client producing audio in the given
// format (e.g., "mp3"). The timeout applies to every HTTP request made by
// this client.
func NewClient(baseURL, format string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		format:  format,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// speechRequest is the JSON payload for a synthesis call.
type speechRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Format string `json:"format"`
}

// errorResponse is the structured JSON error shape of the service.
type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Synthesize renders text to speech with the given voice and returns the
// encoded audio bytes.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, ErrTextEmpty
	}

	if voice == "" {
		return nil, ErrVoiceEmpty
	}

	payload := speechRequest{Text: text, Voice: voice, Format: c.format}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	url := c.baseURL + apiSpeech

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeMP3)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send synthesis request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeMP3 {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedContentType, contentTypeMP3, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrReceivedEmptyAudio
	}

	return audioData, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw body so diagnostics are preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp errorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf(
			"%w: %s: %s (code: %s)",
			ErrUnexpectedStatus, resp.Status, errorResp.Detail, errorResp.ErrorCode,
		)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("%w: %s, body: %s", ErrUnexpectedStatus, resp.Status, string(body))
}
