package audit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/kainan-collective/kainan/internal/middleware"
)

// ErrNilRepository is returned when a nil repository is passed to logging functions.
var ErrNilRepository = errors.New("audit repository cannot be nil")

// extractIPAddress extracts the client IP address from an HTTP request.
// It checks X-Forwarded-For, X-Real-IP, and RemoteAddr in that order.
// The port is stripped from the IP address so the value fits inet columns.
func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		var firstIP string
		if idx := strings.Index(xff, ","); idx != -1 {
			firstIP = strings.TrimSpace(xff[:idx])
		} else {
			firstIP = strings.TrimSpace(xff)
		}
		if firstIP != "" {
			host, _, err := net.SplitHostPort(firstIP)
			if err != nil {
				return firstIP
			}
			return host
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		xri = strings.TrimSpace(xri)
		host, _, err := net.SplitHostPort(xri)
		if err != nil {
			return xri
		}
		return host
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RecordChange records a curation change to the audit log, filling in the
// request ID from the context if available.
//
// Error handling is fail-closed: if audit logging fails, the error is
// returned to the caller so curation changes never go unrecorded.
func RecordChange(ctx context.Context, repo Repository, change Change) error {
	if repo == nil {
		return ErrNilRepository
	}
	if change.RequestID == "" {
		change.RequestID = middleware.GetRequestID(ctx)
	}
	_, err := repo.Record(ctx, change)
	return err
}

// RecordChangeFromRequest records a curation change with HTTP request
// metadata. It extracts the request ID and client IP from the request.
func RecordChangeFromRequest(r *http.Request, repo Repository, change Change) error {
	if repo == nil {
		return ErrNilRepository
	}
	if change.RequestID == "" {
		change.RequestID = middleware.GetRequestID(r.Context())
	}
	if change.IPAddress == "" {
		change.IPAddress = extractIPAddress(r)
	}
	_, err := repo.Record(r.Context(), change)
	return err
}
