// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package api is a thin REST client for the Google Calendar, Drive and Meet
// APIs used by the meet middleware.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
)

// ClientAPI defines the interface for Google API operations
// This allows for easy mocking and testing of the Google client
type ClientAPI interface {
	InsertEvent(ctx context.Context, event *Event) (*Event, error)
	PatchEvent(ctx context.Context, eventID string, patch *EventPatch) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListDriveFiles(ctx context.Context, query string, pageSize int) ([]DriveFile, error)
	ListConferenceRecords(ctx context.Context, filter string) ([]ConferenceRecord, error)
	ListConferenceRecordings(ctx context.Context, conferenceRecord string) ([]ConferenceRecording, error)
	CalendarID() string
	TimeZone() string
}

const (
	// CalendarBaseURL is the base URL for the Calendar v3 API
	CalendarBaseURL = "https://www.googleapis.com/calendar/v3"
	// DriveBaseURL is the base URL for the Drive v3 API
	DriveBaseURL = "https://www.googleapis.com/drive/v3"
	// MeetBaseURL is the base URL for the Meet v2 API
	MeetBaseURL = "https://meet.googleapis.com/v2"
	// DefaultCalendarID is used when no calendar is configured
	DefaultCalendarID = "primary"
	// DefaultTimeZone is the IANA zone used to render event times
	DefaultTimeZone = "America/Bogota"
	// DefaultClientTimeout is the default HTTP client timeout for Google API requests
	DefaultClientTimeout = 30 * time.Second
	// Default retry configuration
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Scopes requested for the service account.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/drive.readonly",
	"https://www.googleapis.com/auth/meetings.space.readonly",
}

// Client represents a Google API client
type Client struct {
	httpClient *http.Client
	config     Config
}

// Config holds the configuration for the Google client
type Config struct {
	// CredentialsJSON is the service account key file content.
	CredentialsJSON []byte
	// Subject is the workspace user impersonated through domain-wide delegation.
	Subject    string
	CalendarID string
	TimeZone   string
	// Optional: override base URLs for testing
	CalendarBaseURL string
	DriveBaseURL    string
	MeetBaseURL     string
	// Optional: override the token source, bypassing CredentialsJSON
	TokenSource oauth2.TokenSource
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Optional: retry configuration. A negative MaxRetries disables retries.
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// Ensure that Client implements ClientAPI
var _ ClientAPI = (*Client)(nil)

// NewClient creates a new Google API client. The context is only used to
// build the token source.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	if config.CalendarBaseURL == "" {
		config.CalendarBaseURL = CalendarBaseURL
	}
	if config.DriveBaseURL == "" {
		config.DriveBaseURL = DriveBaseURL
	}
	if config.MeetBaseURL == "" {
		config.MeetBaseURL = MeetBaseURL
	}
	if config.CalendarID == "" {
		config.CalendarID = DefaultCalendarID
	}
	if config.TimeZone == "" {
		config.TimeZone = DefaultTimeZone
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = DefaultInitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = DefaultBackoffMultiplier
	}

	ts := config.TokenSource
	if ts == nil {
		if len(config.CredentialsJSON) == 0 {
			return nil, errors.New("google credentials are required")
		}
		// Service account with domain-wide delegation: the subject is the
		// workspace user whose calendar and drive are used.
		jwtConfig, err := google.JWTConfigFromJSON(config.CredentialsJSON, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid google service account credentials: %w", err)
		}
		jwtConfig.Subject = config.Subject
		ts = jwtConfig.TokenSource(ctx)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &oauth2.Transport{
				Base:   http.DefaultTransport,
				Source: oauth2.ReuseTokenSource(nil, ts),
			},
		},
		config: config,
	}, nil
}

// CalendarID returns the calendar events are created on.
func (c *Client) CalendarID() string {
	return c.config.CalendarID
}

// TimeZone returns the IANA zone used for event times.
func (c *Client) TimeZone() string {
	return c.config.TimeZone
}

// shouldRetry determines if an error or HTTP status code should be retried
func shouldRetry(statusCode int, err error) bool {
	if err != nil {
		// Don't retry if context was cancelled or timed out
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		// Don't retry when the token endpoint rejected the credentials
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return false
		}
		// Retry on network/connection errors
		return true
	}

	// Retry on server errors (5xx)
	if statusCode >= 500 && statusCode < 600 {
		return true
	}

	// Retry on rate limiting (429)
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	// Don't retry on client errors (4xx)
	return false
}

// calculateBackoff calculates the backoff duration for a retry attempt with jitter
func (c *Client) calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.config.InitialBackoff
	}

	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffMultiplier, float64(attempt))
	if time.Duration(backoff) > c.config.MaxBackoff {
		backoff = float64(c.config.MaxBackoff)
	}

	// ±25% jitter
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoffWithJitter := time.Duration(backoff + jitter)
	if backoffWithJitter < c.config.InitialBackoff {
		backoffWithJitter = c.config.InitialBackoff
	}

	return backoffWithJitter
}

// doRequest performs an authenticated HTTP request to a Google API. Only
// idempotent requests are retried; an event insert must never be sent twice.
func (c *Client) doRequest(ctx context.Context, method, url string, body any, idempotent bool) (*http.Response, error) {
	jsonBody, err := c.marshalRequestBody(body)
	if err != nil {
		return nil, err
	}

	maxRetries := c.config.MaxRetries
	if !idempotent {
		maxRetries = 0
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := c.createRequest(ctx, method, url, jsonBody)
		if err != nil {
			return nil, err
		}

		c.logRequestAttempt(ctx, method, url, attempt, maxRetries)

		resp, duration, err := c.executeRequestWithTiming(req)

		if c.isRequestSuccessful(err, resp) {
			c.logSuccessfulResponse(ctx, method, url, resp, duration, attempt)
			return resp, nil
		}

		lastErr, lastResp = err, c.closeAndReplaceResponse(lastResp, resp)
		statusCode := c.extractStatusCode(resp)

		if !shouldRetry(statusCode, err) {
			c.logNonRetryableError(ctx, method, url, statusCode, duration, attempt, err)
			break
		}

		if attempt < maxRetries {
			if err := c.handleRetryDelay(ctx, method, url, statusCode, attempt, maxRetries, err, lastResp); err != nil {
				return nil, err
			}
		} else if maxRetries > 0 {
			slog.ErrorContext(ctx, "Google API request failed after all retries",
				"method", method,
				"url", url,
				"status", statusCode,
				"attempts", attempt+1,
				logging.ErrKey, err)
		}
	}

	return c.handleFinalResult(lastErr, lastResp, maxRetries)
}

// marshalRequestBody marshals the request body to JSON
func (c *Client) marshalRequestBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return jsonBody, nil
}

// createRequest creates a new HTTP request with the given parameters
func (c *Client) createRequest(ctx context.Context, method, url string, jsonBody []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if jsonBody != nil {
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) logRequestAttempt(ctx context.Context, method, url string, attempt, maxRetries int) {
	if attempt == 0 {
		slog.DebugContext(ctx, "making Google API request",
			"method", method,
			"url", url,
			"max_retries", maxRetries,
		)
		return
	}
	slog.DebugContext(ctx, "retrying Google API request",
		"method", method,
		"url", url,
		"attempt", attempt,
		"max_retries", maxRetries,
	)
}

// executeRequestWithTiming executes the request and returns the response, duration, and error
func (c *Client) executeRequestWithTiming(req *http.Request) (*http.Response, time.Duration, error) {
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	return resp, time.Since(startTime), err
}

// isRequestSuccessful checks if a request was successful (no error and not a server error/rate limit)
func (c *Client) isRequestSuccessful(err error, resp *http.Response) bool {
	return err == nil && resp != nil && resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests
}

// closeAndReplaceResponse closes the old response if it exists and returns the new one
func (c *Client) closeAndReplaceResponse(oldResp, newResp *http.Response) *http.Response {
	if oldResp != nil && newResp != nil {
		_ = oldResp.Body.Close()
	}
	if newResp == nil {
		return oldResp
	}
	return newResp
}

// extractStatusCode safely extracts the status code from a response
func (c *Client) extractStatusCode(resp *http.Response) int {
	if resp != nil {
		return resp.StatusCode
	}
	return 0
}

func (c *Client) logSuccessfulResponse(ctx context.Context, method, url string, resp *http.Response, duration time.Duration, attempt int) {
	slog.DebugContext(ctx, "Google API request completed",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", duration.String(),
		"attempt", attempt+1,
	)
}

func (c *Client) logNonRetryableError(ctx context.Context, method, url string, statusCode int, duration time.Duration, attempt int, err error) {
	slog.WarnContext(ctx, "Google API request failed (not retryable)",
		"method", method,
		"url", url,
		"status", statusCode,
		"duration", duration.String(),
		"attempt", attempt+1,
		logging.ErrKey, err)
}

// handleRetryDelay handles the delay between retry attempts
func (c *Client) handleRetryDelay(ctx context.Context, method, url string, statusCode, attempt, maxRetries int, err error, lastResp *http.Response) error {
	backoff := c.calculateBackoff(attempt)
	slog.WarnContext(ctx, "Google API request failed, retrying",
		"method", method,
		"url", url,
		"status", statusCode,
		"attempt", attempt+1,
		"max_retries", maxRetries,
		"backoff", backoff.String(),
		logging.ErrKey, err)

	select {
	case <-ctx.Done():
		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

// handleFinalResult returns the last response so callers can parse the
// error body, or the last transport error.
func (c *Client) handleFinalResult(lastErr error, lastResp *http.Response, maxRetries int) (*http.Response, error) {
	if lastErr != nil {
		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
	}
	return lastResp, nil
}

// decodeResponse checks the status code and decodes a JSON body into out.
func decodeResponse(resp *http.Response, out any, okStatuses ...int) error {
	defer func() { _ = resp.Body.Close() }()

	ok := false
	for _, s := range okStatuses {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		body, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
