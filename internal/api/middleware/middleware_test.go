package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"cftrigger/internal/config"
)

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuthMiddleware(config.APIConfig{Keys: []string{"valid-key-1", "valid-key-2"}})

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(APIKeyFromContext(r.Context())))
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{"Valid API key in Authorization header", "Bearer valid-key-1", http.StatusOK, "valid-key-1"},
		{"Valid API key without Bearer prefix", "valid-key-2", http.StatusOK, "valid-key-2"},
		{"Invalid API key", "Bearer invalid-key", http.StatusUnauthorized, ""},
		{"Missing API key", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			auth.Middleware(testHandler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if tt.expectedStatus == http.StatusOK && rr.Body.String() != tt.expectedBody {
				t.Errorf("Expected API key %q in response, got %q", tt.expectedBody, rr.Body.String())
			}
		})
	}

	t.Run("Query parameter is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test?api_key=valid-key-1", nil)
		rr := httptest.NewRecorder()

		auth.Middleware(testHandler).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", rr.Code)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	auth := NewAuthMiddleware(config.APIConfig{Keys: []string{"test-key-1", "test-key-2", "  "}})

	tests := []struct {
		name     string
		apiKey   string
		expected bool
	}{
		{"Valid key 1", "test-key-1", true},
		{"Valid key 2", "test-key-2", true},
		{"Invalid key", "invalid-key", false},
		{"Empty key", "", false},
		{"Blank configured key does not match", "  ", false},
		{"Key with Bearer prefix", "Bearer test-key-1", true},
		{"Key with spaces", "  test-key-1  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := auth.ValidateAPIKey(tt.apiKey); result != tt.expected {
				t.Errorf("ValidateAPIKey(%q) = %v, expected %v", tt.apiKey, result, tt.expected)
			}
		})
	}
}

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		expectedAPIKey string
	}{
		{"From Authorization header", "Bearer test-key", "test-key"},
		{"From Authorization header without Bearer", "test-key", "test-key"},
		{"No API key", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if apiKey := GetAPIKey(req); apiKey != tt.expectedAPIKey {
				t.Errorf("GetAPIKey() = %q, expected %q", apiKey, tt.expectedAPIKey)
			}
		})
	}
}

func TestLimitBodySize(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	maxSize := int64(1024 * 1024)
	tests := []struct {
		name           string
		bodySize       int
		hideLength     bool
		expectedStatus int
	}{
		{"Small body (1KB)", 1024, false, http.StatusOK},
		{"Large body (2MB) rejected by Content-Length", 2 * 1024 * 1024, false, http.StatusRequestEntityTooLarge},
		{"Large body (2MB) rejected while reading", 2 * 1024 * 1024, true, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.Repeat([]byte("a"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewReader(body))
			if tt.hideLength {
				req.ContentLength = -1
			}
			rr := httptest.NewRecorder()

			LimitBodySize(maxSize)(handler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetRequestID(r)))
	})

	t.Run("Generates ID when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rr := httptest.NewRecorder()

		RequestIDMiddleware(handler).ServeHTTP(rr, req)

		id := rr.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("Expected generated UUID, got %q", id)
		}
		if rr.Body.String() != id {
			t.Errorf("Expected context ID %q, got %q", id, rr.Body.String())
		}
	})

	t.Run("Keeps client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "custom-request-id")
		rr := httptest.NewRecorder()

		RequestIDMiddleware(handler).ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got != "custom-request-id" {
			t.Errorf("Expected custom-request-id, got %q", got)
		}
	})

	t.Run("Replaces oversized client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		rr := httptest.NewRecorder()

		RequestIDMiddleware(handler).ServeHTTP(rr, req)

		if _, err := uuid.Parse(rr.Header().Get(RequestIDHeader)); err != nil {
			t.Errorf("Expected generated UUID, got %q", rr.Header().Get(RequestIDHeader))
		}
	})
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if id := GetRequestID(req); id != "" {
		t.Errorf("Expected empty request ID, got %q", id)
	}
}
