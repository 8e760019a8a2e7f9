package validate

import (
	"errors"
	"fmt"
	"strings"
)

// File validation errors
var (
	ErrInvalidMIMEType = errors.New("invalid MIME type")
	ErrFileTooLarge    = errors.New("file too large")
)

// Photo MIME types accepted for dish and restaurant uploads.
const (
	MIMEImageJPEG = "image/jpeg"
	MIMEImagePNG  = "image/png"
	MIMEImageWebP = "image/webp"
)

// AllowedPhotoTypes defines the MIME types accepted for photo uploads.
var AllowedPhotoTypes = []string{
	MIMEImageJPEG,
	MIMEImagePNG,
	MIMEImageWebP,
}

// MaxPhotoSizeBytes caps photo uploads at 10 MB.
const MaxPhotoSizeBytes = 10 * 1024 * 1024

// FileConstraints defines validation constraints for file uploads.
type FileConstraints struct {
	AllowedTypes []string
	MaxSizeBytes int64
}

// MIMEType validates a MIME type against the allowed set.
// Returns the normalized (lowercased) MIME type.
func MIMEType(mimeType string, allowedTypes []string) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return "", ErrEmpty
	}

	for _, allowed := range allowedTypes {
		if mimeType == strings.ToLower(allowed) {
			return mimeType, nil
		}
	}
	return "", fmt.Errorf("%w: %q not in allowed types", ErrInvalidMIMEType, mimeType)
}

// FileSize validates a file size against constraints.
func FileSize(sizeBytes int64, constraints FileConstraints) error {
	if sizeBytes <= 0 {
		return errors.New("file size must be positive")
	}
	if constraints.MaxSizeBytes > 0 && sizeBytes > constraints.MaxSizeBytes {
		return fmt.Errorf("%w: got %d bytes, maximum is %d", ErrFileTooLarge, sizeBytes, constraints.MaxSizeBytes)
	}
	return nil
}

// File validates both MIME type and file size.
func File(mimeType string, sizeBytes int64, constraints FileConstraints) (string, error) {
	validatedType, err := MIMEType(mimeType, constraints.AllowedTypes)
	if err != nil {
		return "", err
	}
	if err := FileSize(sizeBytes, constraints); err != nil {
		return "", err
	}
	return validatedType, nil
}

// PhotoFile validates a photo upload against the default photo constraints.
func PhotoFile(mimeType string, sizeBytes int64) (string, error) {
	return File(mimeType, sizeBytes, FileConstraints{
		AllowedTypes: AllowedPhotoTypes,
		MaxSizeBytes: MaxPhotoSizeBytes,
	})
}
