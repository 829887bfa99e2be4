package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrFileTooLarge = errors.New("file too large")

	ErrInvalidUploadToken = errors.New("invalid upload token")
	ErrUploadExpired      = errors.New("upload url expired")
)

// StorageInterface defines the interface for item image storage backends.
// Only the local filesystem backend exists today; a cloud bucket would
// implement the same contract.
type StorageInterface interface {
	// GeneratePresignedUploadURL returns a URL the client PUTs the file to
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiresIn time.Duration) (string, error)

	// VerifyUploadToken checks the signed token embedded in an upload URL
	VerifyUploadToken(token, key, contentType string) error

	// GeneratePresignedDownloadURL returns the public URL stored in Item.ImageURL
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// FileExists checks if a file exists and returns its size
	FileExists(ctx context.Context, key string) (exists bool, size int64, err error)

	DeleteFile(ctx context.Context, key string) error

	// SaveFile and ReadFile back the upload/download HTTP routes of the local store
	SaveFile(key string, reader io.Reader) error
	ReadFile(key string) (io.ReadCloser, error)
}
