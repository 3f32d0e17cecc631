// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/setlist/internal/logging"
)

type contextKey string

// ClaimsContextKey holds the validated *Claims on the request context.
const ClaimsContextKey contextKey = "claims"

// ErrorResponder writes an error response. It lets the API layer keep its
// response envelope.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Error codes written by RequireRole.
const (
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeForbidden      = "FORBIDDEN"
)

// RequireRole rejects requests without a valid bearer token carrying role.
// A nil manager disables the check.
func RequireRole(m *JWTManager, role string, respond ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond(w, r, http.StatusUnauthorized, CodeAuthentication, "missing bearer token")
				return
			}

			claims, err := m.ValidateToken(token)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
				respond(w, r, http.StatusUnauthorized, CodeAuthentication, "invalid token")
				return
			}
			if claims.Role != role {
				respond(w, r, http.StatusForbidden, CodeForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims RequireRole stored, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
