// Package translate provides an HTTP client for a remote text translation
// service, implementing the core.Translator capability.
package translate

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
	apiTranslations = "/v1/translations"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Static errors.
var (
	ErrTextEmpty        = errors.New("text cannot be empty")
	ErrTargetLangEmpty  = errors.New("target language cannot be empty")
	ErrEmptyTranslation = errors.New("translation service returned an empty translation")
	ErrUnexpectedStatus = errors.New("translation service returned non-OK status")
)

// Client is an HTTP client for the translation service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a translation service client. The timeout applies to
// every HTTP request made by this client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// translationRequest is the JSON payload for a translation call. A source
// language of "auto" asks the service to detect it.
type translationRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// translationResponse is the JSON shape of a successful translation.
type translationResponse struct {
	TranslatedText         string `json:"translated_text"`
	DetectedSourceLanguage string `json:"detected_source_language,omitempty"`
}

// Translate converts text to the target language and returns the translated
// text.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" {
		return "", ErrTextEmpty
	}

	if targetLang == "" {
		return "", ErrTargetLangEmpty
	}

	payload := translationRequest{
		Text:           text,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal translation request: %w", err)
	}

	url := c.baseURL + apiTranslations

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create translation request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send translation request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("%w: %s, body: %s", ErrUnexpectedStatus, resp.Status, string(body))
	}

	var result translationResponse

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}

	if result.TranslatedText == "" {
		return "", ErrEmptyTranslation
	}

	return result.TranslatedText, nil
}
