package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kainan-collective/kainan/internal/rating"
	"github.com/kainan-collective/kainan/internal/validate"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{
		BucketName:      "kainan-photos",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "https://storage.test.example.com",
		MaxSizeMB:       10,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNewServiceValidation(t *testing.T) {
	tests := []struct {
		name   string
		config ServiceConfig
	}{
		{"missing bucket", ServiceConfig{AccessKeyID: "k", SecretAccessKey: "s", Endpoint: "e"}},
		{"missing access key", ServiceConfig{BucketName: "b", SecretAccessKey: "s", Endpoint: "e"}},
		{"missing secret", ServiceConfig{BucketName: "b", AccessKeyID: "k", Endpoint: "e"}},
		{"missing endpoint", ServiceConfig{BucketName: "b", AccessKeyID: "k", SecretAccessKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(tt.config); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{validate.MIMEImageJPEG, false},
		{validate.MIMEImagePNG, false},
		{validate.MIMEImageWebP, false},
		{"image/gif", true},
		{"audio/mpeg", true},
		{"application/octet-stream", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			err := ValidateContentType(tt.contentType)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContentType(%q) error = %v, wantErr %v", tt.contentType, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	svc := newTestService(t)

	if err := svc.ValidateFileSize(5 * 1024 * 1024); err != nil {
		t.Errorf("5MB should be accepted: %v", err)
	}
	if err := svc.ValidateFileSize(11 * 1024 * 1024); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("11MB should exceed the limit, got %v", err)
	}
	if err := svc.ValidateFileSize(0); err == nil {
		t.Error("zero size should be rejected")
	}
	if err := svc.ValidateFileSize(-1); err == nil {
		t.Error("negative size should be rejected")
	}
}

func TestGenerateObjectKey(t *testing.T) {
	key, err := GenerateObjectKey(validate.MIMEImageJPEG, rating.KindDish, "dish-123")
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	if !strings.HasPrefix(key, "photos/dish/dish-123/") {
		t.Errorf("key = %q, want photos/dish/dish-123/ prefix", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key = %q, want .jpg suffix", key)
	}

	// Empty target falls back to a temp prefix for pre-creation uploads.
	key, err = GenerateObjectKey(validate.MIMEImageWebP, rating.KindRestaurant, "")
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	if !strings.HasPrefix(key, "photos/restaurant/temp/") {
		t.Errorf("key = %q, want photos/restaurant/temp/ prefix", key)
	}

	if _, err := GenerateObjectKey(validate.MIMEImagePNG, rating.Kind("album"), "x"); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("invalid kind should be rejected, got %v", err)
	}
	if _, err := GenerateObjectKey("image/gif", rating.KindDish, "x"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("unsupported type should be rejected, got %v", err)
	}
	// A target ID reduced to nothing by sanitization is invalid.
	if _, err := GenerateObjectKey(validate.MIMEImagePNG, rating.KindDish, "../.."); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("path traversal target should be rejected, got %v", err)
	}
}

func TestGenerateObjectKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		key, err := GenerateObjectKey(validate.MIMEImagePNG, rating.KindDish, "d-1")
		if err != nil {
			t.Fatalf("failed to generate key: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestGenerateSignedURL(t *testing.T) {
	svc := newTestService(t)
	svc.timeNow = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	resp, err := svc.GenerateSignedURL(context.Background(), SignedURLRequest{
		ContentType: validate.MIMEImageJPEG,
		SizeBytes:   1024,
		TargetKind:  rating.KindDish,
		TargetID:    "dish-7",
	})
	if err != nil {
		t.Fatalf("failed to generate signed URL: %v", err)
	}

	if resp.URL == "" {
		t.Error("expected a presigned URL")
	}
	if !strings.HasPrefix(resp.Key, "photos/dish/dish-7/") {
		t.Errorf("key = %q", resp.Key)
	}
	wantExpiry := time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC)
	if !resp.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires_at = %v, want %v", resp.ExpiresAt, wantExpiry)
	}
}

func TestGenerateSignedURLRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.GenerateSignedURL(context.Background(), SignedURLRequest{
		ContentType: "video/mp4",
		SizeBytes:   1024,
		TargetKind:  rating.KindDish,
	}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("unsupported type: got %v", err)
	}

	if _, err := svc.GenerateSignedURL(context.Background(), SignedURLRequest{
		ContentType: validate.MIMEImageJPEG,
		SizeBytes:   100 * 1024 * 1024,
		TargetKind:  rating.KindDish,
	}); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversize file: got %v", err)
	}
}
