package service

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/stretchr/testify/mock"

	"storefront-service/internal/cache"
	"storefront-service/internal/media"
)

var testLogger = log.New(io.Discard, "", 0)

// MockUploader is a mock implementation of media.Uploader
type MockUploader struct {
	mock.Mock
	Limit int64
}

func (m *MockUploader) MaxFileBytes() int64 { return m.Limit }

func (m *MockUploader) Upload(ctx context.Context, f media.File) (string, error) {
	args := m.Called(ctx, f)
	return args.String(0), args.Error(1)
}

// brokenCache fails every operation, as an unreachable Redis would.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string, any) (bool, error) { return false, errCacheDown }
func (brokenCache) Set(context.Context, string, any) error         { return errCacheDown }
func (brokenCache) Delete(context.Context, ...string) error        { return errCacheDown }
func (brokenCache) DeletePrefix(context.Context, string) error     { return errCacheDown }
func (brokenCache) Stats() cache.StatsSnapshot                     { return cache.StatsSnapshot{} }

var pngFile = media.File{
	Name: "lamp.png",
	Data: append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...),
}
