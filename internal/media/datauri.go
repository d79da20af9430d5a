package media

import (
	"context"
	"encoding/base64"
)

// DataURIUploader embeds the image itself in the returned URL.
type DataURIUploader struct {
	maxBytes int64
}

var _ Uploader = (*DataURIUploader)(nil)

func NewDataURIUploader(maxBytes int64) *DataURIUploader {
	return &DataURIUploader{maxBytes: maxBytes}
}

func (u *DataURIUploader) MaxFileBytes() int64 { return u.maxBytes }

// Upload returns "data:<mime>;base64,<payload>".
func (u *DataURIUploader) Upload(_ context.Context, f File) (string, error) {
	mime, err := Validate(f, u.maxBytes)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data), nil
}
