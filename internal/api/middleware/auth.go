package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"cftrigger/internal/config"
	"cftrigger/internal/logger"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// APIKeyContextKey is the context key for the API key
const APIKeyContextKey ContextKey = "api_key"

// AuthMiddleware validates API keys sent as bearer tokens
type AuthMiddleware struct {
	apiKeys []string
}

// NewAuthMiddleware creates a new AuthMiddleware instance
func NewAuthMiddleware(cfg config.APIConfig) *AuthMiddleware {
	keys := make([]string, 0, len(cfg.Keys))
	for _, key := range cfg.Keys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return &AuthMiddleware{apiKeys: keys}
}

// ValidateAPIKey reports whether apiKey is configured. Comparison is constant time.
func (am *AuthMiddleware) ValidateAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(strings.TrimPrefix(apiKey, "Bearer "))
	if apiKey == "" {
		return false
	}

	valid := false
	for _, key := range am.apiKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			valid = true
		}
	}
	return valid
}

// GetAPIKey extracts the API key from the Authorization header.
// Query parameters are not accepted since they end up in access logs.
func GetAPIKey(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// APIKeyFromContext returns the key stored by Middleware
func APIKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(APIKeyContextKey).(string); ok {
		return key
	}
	return ""
}

// Middleware returns an HTTP handler that validates API keys
func (am *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := GetAPIKey(r)

		if !am.ValidateAPIKey(apiKey) {
			logger.Warn("Invalid API key", "ip", r.RemoteAddr, "path", r.URL.Path, "request_id", GetRequestID(r))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), APIKeyContextKey, strings.TrimSpace(apiKey))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
