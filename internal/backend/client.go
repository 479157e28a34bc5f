// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatpad-tui/internal/logging"
	"github.com/jeranaias/chatpad-tui/internal/metrics"
)

const (
	// DefaultTimeout bounds one request when no timeout is configured.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize caps the body we are willing to read. Generated images
	// arrive inline as base64, so this is generous.
	MaxResponseSize = 32 * 1024 * 1024

	PathSendMessage   = "/send_message"
	PathGenerateImage = "/generate_image"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusLoading = "loading"
	StatusError   = "error"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// File is one attachment descriptor. Data is base64 for images and null
// otherwise; Content carries the text of text files.
type File struct {
	Type    string  `json:"type"`
	Data    *string `json:"data"`
	Name    string  `json:"name"`
	Content string  `json:"content,omitempty"`
}

// SendRequest is the /send_message body.
type SendRequest struct {
	Message      string  `json:"message"`
	Files        []File  `json:"files"`
	SystemPrompt string  `json:"system_prompt"`
	Temperature  float64 `json:"temperature"`
}

// SendResponse is the /send_message reply.
type SendResponse struct {
	Status    string `json:"status"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ImageRequest is the /generate_image body.
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ImageResponse is the /generate_image reply.
type ImageResponse struct {
	Status      string `json:"status"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Message     string `json:"message,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyPrompt rejects an image request with nothing to draw.
	ErrEmptyPrompt = errors.New("image prompt is empty")

	// ErrModelLoading is matched by *LoadingError.
	ErrModelLoading = errors.New("model is loading")

	// ErrRateLimited is returned when the local limiter's wait is cancelled.
	ErrRateLimited = errors.New("request throttled")
)

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// AppError is a 2xx response whose body reports failure.
type AppError struct {
	Status  string
	Message string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Unknown error"
}

// LoadingError reports that the image model is still warming up.
type LoadingError struct {
	Message string
}

func (e *LoadingError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "The image model is still loading. Please try again in a moment."
}

func (e *LoadingError) Is(target error) bool { return target == ErrModelLoading }

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one backend.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *logging.Logger
	metrics *metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying client (tests pass httptest's).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit allows at most perMinute requests per minute. Zero disables.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log).Named("backend")
	return c
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string { return c.baseURL }

// SendMessage posts a chat message. A nil Files slice is sent as [].
func (c *Client) SendMessage(ctx context.Context, req SendRequest) (*SendResponse, error) {
	if req.Files == nil {
		req.Files = []File{}
	}

	var resp SendResponse
	status, body, err := c.post(ctx, PathSendMessage, req)
	if err != nil {
		c.observe(PathSendMessage, metrics.OutcomeError, status)
		return nil, err
	}
	if err := decode(body, &resp); err != nil {
		c.observe(PathSendMessage, metrics.OutcomeError, status)
		return nil, err
	}
	if resp.Status != StatusSuccess {
		c.observe(PathSendMessage, metrics.OutcomeError, status)
		return nil, &AppError{Status: resp.Status, Message: resp.Response}
	}
	c.observe(PathSendMessage, metrics.OutcomeSuccess, status)
	return &resp, nil
}

// GenerateImage asks for an image. A "loading" reply is returned as a
// *LoadingError whatever the HTTP status.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*ImageResponse, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	var resp ImageResponse
	status, body, err := c.post(ctx, PathGenerateImage, ImageRequest{Prompt: prompt})

	// The server reports warm-up with 503 and a JSON body; look inside
	// before treating the status code as a failure.
	var httpErr *HTTPError
	if err != nil && !errors.As(err, &httpErr) {
		c.observe(PathGenerateImage, metrics.OutcomeError, status)
		return nil, err
	}
	if decodeErr := decode(body, &resp); decodeErr != nil {
		c.observe(PathGenerateImage, metrics.OutcomeError, status)
		if err != nil {
			return nil, err
		}
		return nil, decodeErr
	}

	switch {
	case resp.Status == StatusLoading:
		c.observe(PathGenerateImage, metrics.OutcomeLoading, status)
		return &resp, &LoadingError{Message: resp.Message}
	case err != nil:
		c.observe(PathGenerateImage, metrics.OutcomeError, status)
		return nil, err
	case resp.Status != StatusSuccess:
		c.observe(PathGenerateImage, metrics.OutcomeError, status)
		return nil, &AppError{Status: resp.Status, Message: resp.Message}
	case resp.ImageBase64 == "":
		c.observe(PathGenerateImage, metrics.OutcomeError, status)
		return nil, &AppError{Status: resp.Status, Message: "server returned no image"}
	}
	c.observe(PathGenerateImage, metrics.OutcomeSuccess, status)
	return &resp, nil
}

// enhanceInstruction is sent as the system prompt for EnhancePrompt.
const enhanceInstruction = "Rewrite the user's message into a clearer, more detailed prompt. " +
	"Reply with the rewritten prompt only, without commentary or quotes."

// EnhancePrompt asks the chat endpoint to rewrite text into a better prompt
// and returns the rewritten text.
func (c *Client) EnhancePrompt(ctx context.Context, text string, temperature float64) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}
	resp, err := c.SendMessage(ctx, SendRequest{
		Message:      text,
		SystemPrompt: enhanceInstruction,
		Temperature:  temperature,
	})
	if err != nil {
		return "", err
	}
	out := strings.Trim(strings.TrimSpace(resp.Response), `"`)
	if out == "" {
		return "", &AppError{Status: resp.Status, Message: "server returned an empty prompt"}
	}
	return out, nil
}

// timedStatus carries the start time through to observe.
type timedStatus struct {
	code  int
	start time.Time
}

func (c *Client) observe(path, outcome string, st timedStatus) {
	d := time.Since(st.start)
	c.metrics.ObserveRequest(strings.TrimPrefix(path, "/"), outcome, d)
	c.log.Info("backend request",
		zap.String("path", path),
		zap.String("outcome", outcome),
		zap.Int("status", st.code),
		zap.Duration("duration", d))
}

// post sends body as JSON. It returns the response body for every
// completed round trip, with an *HTTPError for non-2xx codes.
func (c *Client) post(ctx context.Context, path string, payload interface{}) (timedStatus, []byte, error) {
	st := timedStatus{start: time.Now()}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return st, nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return st, nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return st, nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	c.log.Debug("sending request", zap.String("path", path), zap.String("request_id", reqID), zap.Int("bytes", len(data)))

	resp, err := c.http.Do(req)
	if err != nil {
		return st, nil, err
	}
	defer resp.Body.Close()
	st.code = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return st, nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return st, nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return st, body, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return st, body, nil
}

func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls a human message out of an error body, if any.
func errorMessage(body []byte) string {
	var e struct {
		Response string `json:"response"`
		Message  string `json:"message"`
		Error    string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	for _, s := range []string{e.Response, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}
