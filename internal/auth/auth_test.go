package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testSecret = "test-secret"

func TestIssueAndParseToken(t *testing.T) {
	svc := NewService(testSecret)

	token, err := svc.IssueToken("Student@Example.COM", "Student")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	email, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if email != "student@example.com" {
		t.Errorf("email = %q, want normalized %q", email, "student@example.com")
	}
}

func TestIssueTokenRejectsBadEmail(t *testing.T) {
	svc := NewService(testSecret)

	for _, email := range []string{"", "   ", "not-an-email"} {
		if _, err := svc.IssueToken(email, "x"); err == nil {
			t.Errorf("IssueToken(%q) = nil error", email)
		}
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	svc := NewService(testSecret)
	token, _ := svc.IssueToken("a@b.com", "a")

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Error("token verified with the wrong secret")
	}
}

func TestParticipantMiddleware(t *testing.T) {
	svc := NewService(testSecret)
	token, _ := svc.IssueToken("a@b.com", "a")

	var gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = ParticipantFromContext(r.Context())
	})
	handler := ParticipantMiddleware(testSecret)(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotEmail = ""
			req := httptest.NewRequest("GET", "/api/attempts/1/timer", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && gotEmail != "a@b.com" {
				t.Errorf("context email = %q, want %q", gotEmail, "a@b.com")
			}
		})
	}
}
