package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dune005/syfte/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		database string
	}{
		{"database up", nil, http.StatusOK, "up"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(pinger{err: tt.err})

			rec := httptest.NewRecorder()
			h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.database, body["database"])
		})
	}
}
