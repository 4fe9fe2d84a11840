// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

// PrincipalParser turns a bearer token into the caller's principal.
type PrincipalParser interface {
	ParsePrincipal(ctx context.Context, bearerToken string, logger *slog.Logger) (string, error)
}

// AuthorizationMiddleware authenticates every request but the health probes.
// The principal is stored under constants.PrincipalContextID.
func AuthorizationMiddleware(parser PrincipalParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthCheck(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			header := r.Header.Get(constants.AuthorizationHeader)
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			ctx = context.WithValue(ctx, constants.AuthorizationContextID, header)

			if parser == nil {
				slog.ErrorContext(ctx, "no principal parser configured", logging.PriorityCritical())
				writeUnauthorized(w)
				return
			}

			principal, err := parser.ParsePrincipal(ctx, token, slog.Default())
			if err != nil || principal == "" {
				slog.WarnContext(ctx, "request not authenticated", logging.ErrKey, err)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
			ctx = logging.AppendCtx(ctx, slog.String("principal", principal))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) string {
	principal, _ := ctx.Value(constants.PrincipalContextID).(string)
	return principal
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "unauthorized",
		"message": "missing or invalid bearer token",
	})
}
