package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/upload"
)

// SignUploadRequest represents the request body for POST /uploads/sign.
type SignUploadRequest struct {
	ContentType string      `json:"content_type"`
	SizeBytes   int64       `json:"size_bytes"`
	TargetKind  rating.Kind `json:"target_kind"`
	TargetID    string      `json:"target_id,omitempty"`
}

// SignUploadResponse represents the response for POST /uploads/sign.
type SignUploadResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresAt string `json:"expires_at"` // RFC 3339
}

// UploadHandlers holds dependencies for upload HTTP handlers.
type UploadHandlers struct {
	uploadService *upload.Service
}

// NewUploadHandlers creates a new UploadHandlers instance.
func NewUploadHandlers(uploadService *upload.Service) *UploadHandlers {
	return &UploadHandlers{uploadService: uploadService}
}

// SignUpload handles POST /uploads/sign - generates a pre-signed photo upload URL.
// Restricted to owner and admin roles, matching entity write permission.
func (h *UploadHandlers) SignUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireEntityWriter(w, r); !ok {
		return
	}

	if h.uploadService == nil {
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeInternal, "Photo uploads are not configured")
		return
	}

	var req SignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if req.ContentType == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "content_type is required")
		return
	}
	if req.SizeBytes <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "size_bytes must be positive")
		return
	}

	signedURL, err := h.uploadService.GenerateSignedURL(r.Context(), upload.SignedURLRequest{
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		TargetKind:  req.TargetKind,
		TargetID:    req.TargetID,
	})
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeUnsupportedType,
				"Unsupported content type. Allowed types: image/jpeg, image/png, image/webp")
			return
		case errors.Is(err, upload.ErrFileTooLarge):
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "File size exceeds maximum allowed")
			return
		case errors.Is(err, upload.ErrInvalidTarget):
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "target_kind must be dish or restaurant and target_id must be a valid ID")
			return
		default:
			slog.ErrorContext(r.Context(), "failed to generate signed URL", "error", err)
			WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to generate signed URL")
			return
		}
	}

	WriteJSON(w, r.Context(), http.StatusOK, SignUploadResponse{
		URL:       signedURL.URL,
		Key:       signedURL.Key,
		ExpiresAt: signedURL.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
