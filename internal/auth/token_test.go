package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", "foyer", time.Hour)

	signed, expiresAt, err := m.NewToken("user-42")
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("token already expired")
	}

	claims, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("subject: %q", claims.Subject)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	signed, _, err := NewTokenManager("secret-a", "foyer", time.Hour).NewToken("user-42")
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := NewTokenManager("secret-b", "foyer", time.Hour).Parse(signed); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", "foyer", -time.Minute)
	signed, _, err := m.NewToken("user-42")
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, err := m.Parse(signed); err == nil {
		t.Fatal("expected error")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "hunter2!"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestJWTMiddleware(t *testing.T) {
	m := NewTokenManager("secret", "foyer", time.Hour)
	signed, _, err := m.NewToken("user-42")
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	e := echo.New()
	handler := JWTMiddleware(m)(func(c echo.Context) error {
		userID, ok := UserIDFromContext(c)
		if !ok {
			t.Fatal("user id missing from context")
		}
		return c.String(http.StatusOK, userID)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid bearer", "Bearer " + signed, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			status := rec.Code
			if err != nil {
				var httpErr *echo.HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("unexpected error type: %v", err)
				}
				status = httpErr.Code
			}
			if status != tt.status {
				t.Fatalf("status: %d, want %d", status, tt.status)
			}
			if tt.status == http.StatusOK && rec.Body.String() != "user-42" {
				t.Fatalf("body: %q", rec.Body.String())
			}
		})
	}
}
