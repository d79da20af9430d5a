package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	defaultFolder = "ecommerce_products"
	// Scale down anything larger than 1000x1000, keeping the aspect ratio.
	limitTransformation = "c_limit,h_1000,w_1000"
)

// uploadAPI is the subset of the Cloudinary upload API used here.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryUploader stores images on Cloudinary and returns their HTTPS URL.
type CloudinaryUploader struct {
	api      uploadAPI
	folder   string
	maxBytes int64
}

var _ Uploader = (*CloudinaryUploader)(nil)

func NewCloudinaryUploader(cfg Config) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("media: failed to configure cloudinary: %w", err)
	}
	return newCloudinaryUploader(&cld.Upload, cfg), nil
}

func newCloudinaryUploader(api uploadAPI, cfg Config) *CloudinaryUploader {
	folder := cfg.Folder
	if folder == "" {
		folder = defaultFolder
	}
	return &CloudinaryUploader{api: api, folder: folder, maxBytes: cfg.MaxFileBytes}
}

func (u *CloudinaryUploader) MaxFileBytes() int64 { return u.maxBytes }

func (u *CloudinaryUploader) Upload(ctx context.Context, f File) (string, error) {
	if _, err := Validate(f, u.maxBytes); err != nil {
		return "", err
	}
	res, err := u.api.Upload(ctx, bytes.NewReader(f.Data), uploader.UploadParams{
		Folder:         u.folder,
		Transformation: limitTransformation,
	})
	if err != nil {
		return "", fmt.Errorf("media: upload of %s failed: %w", f.Name, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("media: upload of %s rejected: %w", f.Name, errors.New(res.Error.Message))
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("media: upload of %s returned no URL", f.Name)
	}
	return res.SecureURL, nil
}
