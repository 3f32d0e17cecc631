// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func TestNewJWTManager(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); !errors.Is(err, ErrSecretRequired) {
		t.Errorf("NewJWTManager(empty) error = %v, want ErrSecretRequired", err)
	}
	m, err := NewJWTManager(testSecret, 0)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	if m.timeout != 24*time.Hour {
		t.Errorf("default timeout = %v, want 24h", m.timeout)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := m.GenerateToken("ops@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "ops@example.com" || claims.Role != RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	other, err := NewJWTManager("another_secret_that_is_also_long_enough_123", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	foreign, err := other.GenerateToken("mallory", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	expiredMgr, err := NewJWTManager(testSecret, time.Minute)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	expiredMgr.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredMgr.GenerateToken("ops", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "invalid.token.format"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", expired},
		{"alg none", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() error = nil")
			}
		})
	}
}
