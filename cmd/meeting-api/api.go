// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	goahttp "goa.design/goa/v3/http"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/service"
)

// readinessCheck reports whether a dependency can serve requests.
type readinessCheck func(ctx context.Context) error

// MeetingsAPI serves the middleware's REST API.
type MeetingsAPI struct {
	meetingService       *service.MeetingService
	recordingSyncService *service.RecordingSyncService
	checks               []readinessCheck

	// vars returns the path parameters of a request.
	vars func(*http.Request) map[string]string
}

// NewMeetingsAPI creates a new MeetingsAPI.
func NewMeetingsAPI(
	meetingService *service.MeetingService,
	recordingSyncService *service.RecordingSyncService,
	checks ...readinessCheck,
) *MeetingsAPI {
	return &MeetingsAPI{
		meetingService:       meetingService,
		recordingSyncService: recordingSyncService,
		checks:               checks,
	}
}

// errorBody is the JSON body of every error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err as a JSON error response. Internal errors are
// logged and their detail is not sent to the caller.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusFor(err)

	message := err.Error()
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	if code == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", logging.ErrKey, err)
		message = "internal error"
	}

	writeJSON(ctx, w, code, errorBody{
		Code:    strconv.Itoa(code),
		Message: message,
	})
}

// writeJSON encodes v with the goa response encoder negotiated from ctx.
func writeJSON(ctx context.Context, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := goahttp.ResponseEncoder(ctx, w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "error encoding response", logging.ErrKey, err)
	}
}

// decodeBody decodes the request body into v. An empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

// Readyz checks if the service is able to take inbound requests.
func (s *MeetingsAPI) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.meetingService.ServiceReady() || !s.recordingSyncService.ServiceReady() {
		handleError(ctx, w, domain.NewUnavailableError("services not initialized", domain.ErrServiceUnavailable))
		return
	}
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			slog.WarnContext(ctx, "readiness check failed", logging.ErrKey, err)
			handleError(ctx, w, domain.NewUnavailableError("dependency not ready", domain.ErrServiceUnavailable))
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}

// Livez checks if the service is alive.
func (s *MeetingsAPI) Livez(w http.ResponseWriter, _ *http.Request) {
	// always OK while the process runs; non-recoverable errors terminate it
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}
