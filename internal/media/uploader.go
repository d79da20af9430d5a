// Package media turns uploaded product images into URLs that can be stored on a product.
package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Predefined errors for upload validation
var (
	ErrUnsupportedFormat = errors.New("media: only jpg, jpeg, png and webp images are allowed")
	ErrFileTooLarge      = errors.New("media: file exceeds the size limit")
	ErrEmptyFile         = errors.New("media: file is empty")
)

// File is one uploaded image held in memory.
type File struct {
	Name        string
	ContentType string // As declared by the client; the detected type wins.
	Data        []byte
}

// Uploader stores an image and returns the URL to record on the product.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
	// MaxFileBytes is the per-file size cap; zero means unlimited.
	MaxFileBytes() int64
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedMIME = []string{"image/jpeg", "image/png", "image/webp"}

// Validate checks size, extension and sniffed content type, returning the detected MIME type.
func Validate(f File, maxBytes int64) (string, error) {
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(f.Data)) > maxBytes {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Name, len(f.Data), maxBytes)
	}
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != "" && !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Name)
	}
	mt := mimetype.Detect(f.Data)
	for _, allowed := range allowedMIME {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: %s detected as %s", ErrUnsupportedFormat, f.Name, mt.String())
}

// Config selects and parameterises the upload backend.
type Config struct {
	CloudName    string
	APIKey       string
	APISecret    string
	Folder       string
	MaxFileBytes int64
}

// HostConfigured reports whether the external image host has usable credentials.
// The placeholder cloud name shipped in sample env files counts as unset.
func (c Config) HostConfigured() bool {
	return c.CloudName != "" && c.CloudName != "your_cloud_name" && c.APIKey != "" && c.APISecret != ""
}

// NewUploader returns a Cloudinary uploader when credentials are present and
// the inline data URI uploader otherwise.
func NewUploader(cfg Config, logger *log.Logger) (Uploader, error) {
	if !cfg.HostConfigured() {
		logger.Println("WARN: Image host not configured. Images will be stored inline as base64 data URIs.")
		return NewDataURIUploader(cfg.MaxFileBytes), nil
	}
	u, err := NewCloudinaryUploader(cfg)
	if err != nil {
		return nil, err
	}
	logger.Printf("INFO: Image host configured (cloud %q, folder %q)", cfg.CloudName, u.folder)
	return u, nil
}
