package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dune005/syfte/internal/config"
	"github.com/Dune005/syfte/internal/middleware"
	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withConfig(cfg *config.Config, h http.Handler) http.Handler {
	return middleware.Config(cfg)(h)
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		path     string
		wantHSTS bool
		noStore  bool
	}{
		{"development api", "development", "/api/goals", false, true},
		{"production api", "production", "/api/goals", true, true},
		{"production metrics", "production", "/metrics", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := withConfig(&config.Config{AppEnv: tt.env}, middleware.SecurityHeaders(ok))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, tt.wantHSTS, rec.Header().Get("Strict-Transport-Security") != "")
			assert.Equal(t, tt.noStore, rec.Header().Get("Cache-Control") == "no-store")
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &config.Config{AppEnv: "production", CORSOrigin: "https://app.syfte.ch"}
	h := withConfig(cfg, middleware.CORS(ok))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		req.Header.Set("Origin", "https://app.syfte.ch")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "https://app.syfte.ch", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/goals", nil)
		req.Header.Set("Origin", "https://app.syfte.ch")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token")
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(ok, mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}
