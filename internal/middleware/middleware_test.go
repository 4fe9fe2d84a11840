// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

type fakeParser struct {
	principal string
	err       error
	gotToken  string
}

func (f *fakeParser) ParsePrincipal(_ context.Context, token string, _ *slog.Logger) (string, error) {
	f.gotToken = token
	return f.principal, f.err
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "keeps the caller's request id", incoming: "req-123"},
		{name: "generates a request id", incoming: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/meetings", nil)
			if tt.incoming != "" {
				req.Header.Set(constants.RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(constants.RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestAuthorizationMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		header        string
		parser        *fakeParser
		expectStatus  int
		expectToken   string
		expectPrinc   string
		expectReached bool
	}{
		{
			name:          "valid bearer token",
			path:          "/meetings",
			header:        "Bearer abc.def.ghi",
			parser:        &fakeParser{principal: "user-1"},
			expectStatus:  http.StatusOK,
			expectToken:   "abc.def.ghi",
			expectPrinc:   "user-1",
			expectReached: true,
		},
		{
			name:         "rejected token",
			path:         "/meetings",
			header:       "Bearer bad",
			parser:       &fakeParser{err: errors.New("expired")},
			expectStatus: http.StatusUnauthorized,
			expectToken:  "bad",
		},
		{
			name:         "missing header",
			path:         "/meetings/1",
			parser:       &fakeParser{err: errors.New("empty token")},
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:          "liveness probe skips authentication",
			path:          constants.LivezPath,
			parser:        &fakeParser{err: errors.New("never called")},
			expectStatus:  http.StatusOK,
			expectReached: true,
		},
		{
			name:          "readiness probe skips authentication",
			path:          constants.ReadyzPath,
			parser:        &fakeParser{err: errors.New("never called")},
			expectStatus:  http.StatusOK,
			expectReached: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			var principal string
			handler := AuthorizationMiddleware(tt.parser)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				principal = PrincipalFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectStatus, rec.Code)
			assert.Equal(t, tt.expectReached, reached)
			assert.Equal(t, tt.expectToken, tt.parser.gotToken)
			assert.Equal(t, tt.expectPrinc, principal)
			if tt.expectStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"code":"unauthorized","message":"missing or invalid bearer token"}`, rec.Body.String())
			}
		})
	}
}

func TestAuthorizationMiddleware_NoParser(t *testing.T) {
	handler := AuthorizationMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meetings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLoggerMiddleware_CapturesStatus(t *testing.T) {
	var captured int
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		captured = w.(*responseWriter).statusCode
	})

	rec := httptest.NewRecorder()
	RequestLoggerMiddleware()(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/meetings", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.StatusTeapot, captured)
}

func TestIsHealthCheck(t *testing.T) {
	assert.True(t, isHealthCheck(httptest.NewRequest(http.MethodGet, "/livez", nil)))
	assert.True(t, isHealthCheck(httptest.NewRequest(http.MethodGet, "/readyz", nil)))
	assert.False(t, isHealthCheck(httptest.NewRequest(http.MethodGet, "/meetings", nil)))
}
