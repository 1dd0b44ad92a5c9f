package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/straye-as/finance-api/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func corsConfig(origins ...string) *config.CORSConfig {
	return &config.CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Location", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}
}

func preflight(h http.Handler, origin, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		environment string
		origin      string
		allowed     bool
	}{
		{"development with no origins allows all", nil, "development", "http://localhost:5173", true},
		{"explicit origin allowed", []string{"https://finance.example.com"}, "production", "https://finance.example.com", true},
		{"explicit origin rejects others", []string{"https://finance.example.com"}, "production", "https://evil.example.com", false},
		{"wildcard allows any", []string{"*"}, "staging", "https://any.example.com", true},
		{"production with no origins denies", nil, "production", "https://finance.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(corsConfig(tt.origins...), tt.environment, zap.NewNop())(okHandler)
			rec := preflight(h, tt.origin, http.MethodGet)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(corsConfig("https://finance.example.com"), "production", zap.NewNop())(okHandler)
	rec := preflight(h, "https://finance.example.com", http.MethodPut)

	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_ActualRequestExposesHeaders(t *testing.T) {
	called := false
	h := CORS(corsConfig("https://finance.example.com"), "production", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "https://finance.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Location")
}
