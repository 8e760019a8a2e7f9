package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/municipalities", "/municipalities"},
		{"/municipalities/makati", "/municipalities/{id}"},
		{"/municipalities/makati/dishes", "/municipalities/{id}/dishes"},
		{"/municipalities/makati/dishes/top", "/municipalities/{id}/dishes/top"},
		{"/municipalities/makati/restaurants", "/municipalities/{id}/restaurants"},
		{"/municipalities/makati/restaurants/top", "/municipalities/{id}/restaurants/top"},
		{"/municipalities/makati/restaurants/by-dish", "/municipalities/{id}/restaurants/by-dish"},
		{"/dishes/abc-123", "/dishes/{id}"},
		{"/dishes/abc-123/ratings", "/dishes/{id}/ratings"},
		{"/restaurants/r-9", "/restaurants/{id}"},
		{"/restaurants/r-9/ratings", "/restaurants/{id}/ratings"},
		{"/ratings/rat-55", "/ratings/{id}"},
		{"/favorites", "/favorites"},
		{"/favorites/dish/d-1", "/favorites/{kind}/{id}"},
		{"/admin/dishes/d-1/curation", "/admin/dishes/{id}/curation"},
		{"/admin/restaurants/r-1/curation", "/admin/restaurants/{id}/curation"},
		{"/admin/audit", "/admin/audit"},
		{"/uploads/sign", "/uploads/sign"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/totally/unknown/route", "/totally/unknown/route"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetricsRecordsRequests(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/dishes/d-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	var found bool
	for _, family := range families {
		if !strings.Contains(family.GetName(), "http_requests_total") {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" && label.GetValue() == "/dishes/{id}" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected a request counted under the normalized path /dishes/{id}")
	}
}

func TestHTTPMetricsSkipsHealthEndpoints(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, family := range families {
		if strings.Contains(family.GetName(), "http_requests_total") && len(family.GetMetric()) > 0 {
			t.Error("health endpoints should not be recorded")
		}
	}
}

func TestMetricsRegisterTwice(t *testing.T) {
	metrics := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := metrics.Register(reg); err == nil {
		t.Error("second register on same registry should fail")
	}
}
