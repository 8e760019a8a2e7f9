package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kainan-collective/kainan/internal/authz"
)

// requesterKey is the context key for the authenticated requester.
type requesterKey struct{}

// requesterHolderKey is the context key for the requester holder.
type requesterHolderKey struct{}

// errorCodeKey is the context key for the error code holder.
type errorCodeKey struct{}

// errorCodeHolder carries the machine-readable error code of a failed
// request. It is a pointer so handlers deeper in the chain can set the
// code without threading a new context back up to the logging middleware.
type errorCodeHolder struct {
	code string
}

// requesterHolder mirrors the requester back to the logging middleware,
// which runs outside the auth middleware and never sees derived contexts.
type requesterHolder struct {
	requester authz.Requester
	set       bool
}

// SetRequester stores the authenticated requester in the context.
// Called by the auth middleware after validating the token.
func SetRequester(ctx context.Context, requester authz.Requester) context.Context {
	if holder, ok := ctx.Value(requesterHolderKey{}).(*requesterHolder); ok {
		holder.requester = requester
		holder.set = true
	}
	return context.WithValue(ctx, requesterKey{}, requester)
}

// GetRequester retrieves the authenticated requester from context.
// The second return value is false for unauthenticated requests.
func GetRequester(ctx context.Context) (authz.Requester, bool) {
	if requester, ok := ctx.Value(requesterKey{}).(authz.Requester); ok {
		return requester, true
	}
	if holder, ok := ctx.Value(requesterHolderKey{}).(*requesterHolder); ok && holder.set {
		return holder.requester, true
	}
	return authz.Requester{}, false
}

// SetErrorCode records the error code of a failed request so the logging
// middleware can include it. No-op when called outside the middleware chain.
func SetErrorCode(ctx context.Context, code string) {
	if holder, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		holder.code = code
	}
}

// GetErrorCode retrieves the recorded error code. Returns empty string if none.
func GetErrorCode(ctx context.Context) string {
	if holder, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		return holder.code
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

// WriteHeader captures the status code. Only the first call sets it, to
// match http.ResponseWriter behavior where only the first status is sent.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment.
// Production gets a JSON handler at info level; everything else gets a
// text handler at debug level.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging logs HTTP requests with structured fields: method, path, status,
// latency, request ID, user ID when authenticated, response size, and the
// error code for 4xx/5xx responses.
//
// If a handler panics, the log entry is not written; place a recovery
// middleware outside this one.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newResponseWriter(w)
			ctx := context.WithValue(r.Context(), errorCodeKey{}, &errorCodeHolder{})
			ctx = context.WithValue(ctx, requesterHolderKey{}, &requesterHolder{})
			r = r.WithContext(ctx)

			next.ServeHTTP(rw, r)

			latency := time.Since(start).Milliseconds()

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", latency),
				slog.Int("size", rw.size),
			}

			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}
			if requester, ok := GetRequester(r.Context()); ok {
				attrs = append(attrs, slog.String("user_id", requester.ID))
			}
			if rw.statusCode >= 400 {
				if errorCode := GetErrorCode(r.Context()); errorCode != "" {
					attrs = append(attrs, slog.String("error_code", errorCode))
				}
			}

			switch {
			case rw.statusCode >= 500:
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", attrs...)
			case rw.statusCode >= 400:
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", attrs...)
			default:
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}
		})
	}
}
