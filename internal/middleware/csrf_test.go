package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// csrfServer echoes the token the middleware put in the context.
func csrfServer() http.Handler {
	return middleware.CSRFProtection(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ctxkeys.CSRFToken(r.Context())))
	}))
}

func csrfCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf_token" {
			return c
		}
	}
	t.Fatal("csrf_token cookie not set")
	return nil
}

func TestCSRF_GetIssuesToken(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := csrfCookie(t, rec)
	assert.Equal(t, cookie.Value, rec.Body.String())
	assert.Len(t, cookie.Value, 43)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestCSRF_ReusesValidCookie(t *testing.T) {
	first := httptest.NewRecorder()
	csrfServer().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := csrfCookie(t, first)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	csrfServer().ServeHTTP(rec, req)

	assert.Equal(t, cookie.Value, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestCSRF_StateChangingRequests(t *testing.T) {
	issue := httptest.NewRecorder()
	csrfServer().ServeHTTP(issue, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := csrfCookie(t, issue)

	tests := []struct {
		name   string
		header string
		bearer bool
		want   int
	}{
		{"missing header", "", false, http.StatusForbidden},
		{"wrong header", "not-the-token", false, http.StatusForbidden},
		{"matching header", cookie.Value, false, http.StatusOK},
		{"bearer exempt", "", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/goals", nil)
			req.AddCookie(cookie)
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			if tt.bearer {
				req.Header.Set("Authorization", "Bearer some.jwt.token")
			}

			rec := httptest.NewRecorder()
			csrfServer().ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"invalid CSRF token"}`, rec.Body.String())
			}
		})
	}
}
