package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sportfed/arena/pkg/jwt"
)

// ============================================================================
// Mock TokenVerifier
// ============================================================================

type mockVerifier struct {
	verifyFunc func(token string) (*jwt.Claims, error)
}

func (m *mockVerifier) Verify(token string) (*jwt.Claims, error) {
	return m.verifyFunc(token)
}

func acceptingVerifier(userID, role string) *mockVerifier {
	return &mockVerifier{
		verifyFunc: func(string) (*jwt.Claims, error) {
			claims := &jwt.Claims{Role: role}
			claims.Subject = userID
			return claims, nil
		},
	}
}

func failingVerifier(err error) *mockVerifier {
	return &mockVerifier{
		verifyFunc: func(string) (*jwt.Claims, error) { return nil, err },
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func serveWithAuth(verifier TokenVerifier, authHeader string) (*httptest.ResponseRecorder, *captureHandler) {
	capture := &captureHandler{}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	Auth(verifier)(capture).ServeHTTP(rr, req)
	return rr, capture
}

// ============================================================================
// Auth Tests
// ============================================================================

func TestAuth_ValidToken_SetsUser(t *testing.T) {
	t.Parallel()

	rr, capture := serveWithAuth(acceptingVerifier("user-1", "organizer"), "Bearer good")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !capture.called {
		t.Fatal("expected next handler to be called")
	}
	if got := GetUserID(capture.ctx); got != "user-1" {
		t.Errorf("expected user-1, got %q", got)
	}
	if got := GetUserRole(capture.ctx); got != "organizer" {
		t.Errorf("expected organizer, got %q", got)
	}
}

func TestAuth_LowercaseBearerAccepted(t *testing.T) {
	t.Parallel()

	rr, _ := serveWithAuth(acceptingVerifier("user-1", ""), "bearer good")

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestAuth_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verifier   TokenVerifier
		header     string
		wantDetail string
	}{
		{"missing header", acceptingVerifier("u", ""), "", "missing authorization header"},
		{"wrong scheme", acceptingVerifier("u", ""), "Basic abc", "invalid authorization header format"},
		{"empty token", acceptingVerifier("u", ""), "Bearer ", "invalid authorization header format"},
		{"expired", failingVerifier(jwt.ErrTokenExpired), "Bearer t", "token expired"},
		{"bad signature", failingVerifier(jwt.ErrInvalidSignature), "Bearer t", "invalid token signature"},
		{"other", failingVerifier(errors.New("nope")), "Bearer t", "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rr, capture := serveWithAuth(tt.verifier, tt.header)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rr.Code)
			}
			if capture.called {
				t.Error("next handler must not run")
			}
			if !strings.Contains(rr.Body.String(), tt.wantDetail) {
				t.Errorf("expected detail %q in %s", tt.wantDetail, rr.Body.String())
			}
		})
	}
}

func TestAuth_WithRealService(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewService(jwt.Config{Secret: strings.Repeat("k", 32), Issuer: "arena"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	token, err := svc.Sign("user-9", "participant")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	rr, capture := serveWithAuth(svc, "Bearer "+token)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := GetUserID(capture.ctx); got != "user-9" {
		t.Errorf("expected user-9, got %q", got)
	}
}

func TestGetUserID_Empty(t *testing.T) {
	t.Parallel()

	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("expected empty user id, got %q", got)
	}
	if got := GetUserID(WithUser(context.Background(), "u1")); got != "u1" {
		t.Errorf("expected u1, got %q", got)
	}
}
