package middleware

import (
	"net/http"
	"strings"

	"github.com/kainan-collective/kainan/internal/auth"
	"github.com/kainan-collective/kainan/internal/authz"
)

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requesterFromToken validates an access token and builds the requester
// identity from its claims.
func requesterFromToken(jwtService *auth.JWTService, token string) (authz.Requester, bool) {
	claims, err := jwtService.ValidateToken(token)
	if err != nil || claims.Type != auth.TokenTypeAccess {
		return authz.Requester{}, false
	}
	role := claims.Role
	if role == "" {
		role = authz.RoleUser
	}
	return authz.Requester{ID: claims.Subject, Role: role}, true
}

// RequireAuth rejects requests without a valid access token. On success
// the requester identity is stored in the context.
func RequireAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				SetErrorCode(r.Context(), "missing_token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="kainan"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			requester, ok := requesterFromToken(jwtService, token)
			if !ok {
				SetErrorCode(r.Context(), "invalid_token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="kainan", error="invalid_token"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetRequester(r.Context(), requester)))
		})
	}
}

// OptionalAuth stores the requester identity when a valid access token is
// present and passes unauthenticated requests through untouched. Invalid
// tokens are treated as absent.
func OptionalAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				if requester, ok := requesterFromToken(jwtService, token); ok {
					r = r.WithContext(SetRequester(r.Context(), requester))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
