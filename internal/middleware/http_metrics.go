package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// normalizePath converts paths with dynamic segments to route patterns to
// prevent cardinality explosion in metrics, mapping /dishes/123 to
// /dishes/{id} and so on.
func normalizePath(path string) string {
	staticRoutes := map[string]bool{
		"/":              true,
		"/municipalities": true,
		"/dishes":        true,
		"/restaurants":   true,
		"/ratings":       true,
		"/favorites":     true,
		"/uploads/sign":  true,
		"/admin/audit":   true,
		"/health":        true,
		"/ready":         true,
		"/metrics":       true,
	}
	if staticRoutes[path] {
		return path
	}

	// /municipalities/{id}, /municipalities/{id}/dishes[/top],
	// /municipalities/{id}/restaurants[/top|/by-dish]
	if strings.HasPrefix(path, "/municipalities/") {
		parts := strings.Split(path, "/")
		switch {
		case len(parts) == 3 && parts[2] != "":
			return "/municipalities/{id}"
		case len(parts) == 4 && (parts[3] == "dishes" || parts[3] == "restaurants"):
			return "/municipalities/{id}/" + parts[3]
		case len(parts) == 5 && parts[3] == "dishes" && parts[4] == "top":
			return "/municipalities/{id}/dishes/top"
		case len(parts) == 5 && parts[3] == "restaurants" && (parts[4] == "top" || parts[4] == "by-dish"):
			return "/municipalities/{id}/restaurants/" + parts[4]
		}
	}

	// /dishes/{id}, /dishes/{id}/ratings
	if strings.HasPrefix(path, "/dishes/") {
		parts := strings.Split(path, "/")
		switch {
		case len(parts) == 3 && parts[2] != "":
			return "/dishes/{id}"
		case len(parts) == 4 && parts[3] == "ratings":
			return "/dishes/{id}/ratings"
		}
	}

	// /restaurants/{id}, /restaurants/{id}/ratings
	if strings.HasPrefix(path, "/restaurants/") {
		parts := strings.Split(path, "/")
		switch {
		case len(parts) == 3 && parts[2] != "":
			return "/restaurants/{id}"
		case len(parts) == 4 && parts[3] == "ratings":
			return "/restaurants/{id}/ratings"
		}
	}

	// /ratings/{id}
	if strings.HasPrefix(path, "/ratings/") {
		parts := strings.Split(path, "/")
		if len(parts) == 3 && parts[2] != "" {
			return "/ratings/{id}"
		}
	}

	// /favorites/{kind}/{id}
	if strings.HasPrefix(path, "/favorites/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 {
			return "/favorites/{kind}/{id}"
		}
	}

	// /admin/dishes/{id}/curation, /admin/restaurants/{id}/curation
	if strings.HasPrefix(path, "/admin/") {
		parts := strings.Split(path, "/")
		if len(parts) == 5 && (parts[2] == "dishes" || parts[2] == "restaurants") && parts[4] == "curation" {
			return "/admin/" + parts[2] + "/{id}/curation"
		}
	}

	// Unknown patterns pass through unchanged.
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics records duration, request/response sizes, and request
// counts. Health check endpoints are excluded.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)

			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
