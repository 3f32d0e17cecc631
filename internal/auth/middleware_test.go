// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testResponder(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
}

func TestRequireRole(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	adminToken, _ := m.GenerateToken("ops", RoleAdmin)
	viewerToken, _ := m.GenerateToken("viewer", "viewer")

	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			gotUser = claims.Username
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(m, RoleAdmin, testResponder)(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"admin", "Bearer " + adminToken, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + adminToken, http.StatusNoContent, ""},
		{"missing", "", http.StatusUnauthorized, CodeAuthentication},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, CodeAuthentication},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, CodeAuthentication},
		{"wrong role", "Bearer " + viewerToken, http.StatusForbidden, CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodPost, "/train", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("X-Error-Code"); got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
			if tt.wantStatus == http.StatusNoContent && gotUser != "ops" {
				t.Errorf("claims user = %q, want ops", gotUser)
			}
		})
	}
}

func TestRequireRole_Disabled(t *testing.T) {
	called := false
	handler := RequireRole(nil, RoleAdmin, testResponder)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/train", http.NoBody))
	if !called {
		t.Error("nil manager should pass requests through")
	}
}
