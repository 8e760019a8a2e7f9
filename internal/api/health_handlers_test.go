package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (c *stubChecker) HealthCheck(ctx context.Context) error {
	return c.err
}

func TestHealth(t *testing.T) {
	handlers := NewHealthHandlers(HealthHandlersConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handlers.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		redisErr   error
		noCheckers bool
		wantStatus int
	}{
		{"no checkers configured", nil, nil, true, http.StatusOK},
		{"all healthy", nil, nil, false, http.StatusOK},
		{"db down", errors.New("connection refused"), nil, false, http.StatusServiceUnavailable},
		{"redis down stays ready", nil, errors.New("connection refused"), false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := HealthHandlersConfig{}
			if !tt.noCheckers {
				cfg.DBChecker = &stubChecker{err: tt.dbErr}
				cfg.RedisChecker = &stubChecker{err: tt.redisErr}
			}
			handlers := NewHealthHandlers(cfg)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()
			handlers.Ready(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
