package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kainan-collective/kainan/internal/authz"
	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/upload"
)

func newTestUploadService(t *testing.T) *upload.Service {
	t.Helper()
	svc, err := upload.NewService(upload.ServiceConfig{
		BucketName:      "kainan-photos",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Endpoint:        "https://storage.example.com",
	})
	if err != nil {
		t.Fatalf("create upload service: %v", err)
	}
	return svc
}

func TestSignUpload(t *testing.T) {
	handlers := NewUploadHandlers(newTestUploadService(t))

	tests := []struct {
		name       string
		requester  *authz.Requester
		body       SignUploadRequest
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unauthenticated",
			body:       SignUploadRequest{ContentType: "image/jpeg", SizeBytes: 1024, TargetKind: rating.KindDish},
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeUnauthorized,
		},
		{
			name:       "regular user forbidden",
			requester:  &authz.Requester{ID: "user-1", Role: authz.RoleUser},
			body:       SignUploadRequest{ContentType: "image/jpeg", SizeBytes: 1024, TargetKind: rating.KindDish},
			wantStatus: http.StatusForbidden,
			wantCode:   ErrCodeForbidden,
		},
		{
			name:       "missing content type",
			requester:  &authz.Requester{ID: "owner-1", Role: authz.RoleOwner},
			body:       SignUploadRequest{SizeBytes: 1024, TargetKind: rating.KindDish},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "zero size",
			requester:  &authz.Requester{ID: "owner-1", Role: authz.RoleOwner},
			body:       SignUploadRequest{ContentType: "image/jpeg", TargetKind: rating.KindDish},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "unsupported content type",
			requester:  &authz.Requester{ID: "owner-1", Role: authz.RoleOwner},
			body:       SignUploadRequest{ContentType: "application/pdf", SizeBytes: 1024, TargetKind: rating.KindDish},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeUnsupportedType,
		},
		{
			name:       "file too large",
			requester:  &authz.Requester{ID: "owner-1", Role: authz.RoleOwner},
			body:       SignUploadRequest{ContentType: "image/jpeg", SizeBytes: 11 << 20, TargetKind: rating.KindDish},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "invalid target kind",
			requester:  &authz.Requester{ID: "owner-1", Role: authz.RoleOwner},
			body:       SignUploadRequest{ContentType: "image/jpeg", SizeBytes: 1024, TargetKind: "album"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "success",
			requester:  &authz.Requester{ID: "owner-1", Role: authz.RoleOwner},
			body:       SignUploadRequest{ContentType: "image/jpeg", SizeBytes: 1024, TargetKind: rating.KindDish, TargetID: "dish-1"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, http.MethodPost, "/uploads/sign", tt.body)
			if tt.requester != nil {
				req = asUser(req, tt.requester.ID, tt.requester.Role)
			}
			rec := httptest.NewRecorder()
			handlers.SignUpload(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if code := decodeErrorCode(t, rec); code != tt.wantCode {
					t.Errorf("error code = %q, want %q", code, tt.wantCode)
				}
				return
			}

			var resp SignUploadResponse
			decodeJSON(t, rec, &resp)
			if resp.URL == "" {
				t.Error("expected signed URL")
			}
			if !strings.HasPrefix(resp.Key, "photos/dish/dish-1/") {
				t.Errorf("key = %q, want photos/dish/dish-1/ prefix", resp.Key)
			}
			if resp.ExpiresAt == "" {
				t.Error("expected expiry timestamp")
			}
		})
	}
}

func TestSignUploadNotConfigured(t *testing.T) {
	handlers := NewUploadHandlers(nil)

	req := jsonRequest(t, http.MethodPost, "/uploads/sign", SignUploadRequest{
		ContentType: "image/jpeg", SizeBytes: 1024, TargetKind: rating.KindDish,
	})
	req = asUser(req, "owner-1", authz.RoleOwner)
	rec := httptest.NewRecorder()
	handlers.SignUpload(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
