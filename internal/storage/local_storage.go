package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"clan-rental-backend/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const uploadIssuer = "clan-rental-storage"

// uploadClaims bind an upload URL to one key and content type until it expires.
type uploadClaims struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	jwt.RegisteredClaims
}

// LocalStorage keeps item images on the local filesystem and hands out URLs
// that point back at this server's upload/download routes.
type LocalStorage struct {
	baseURL    string // e.g. "http://localhost:8080"
	imagesDir  string
	maxBytes   int64
	signingKey []byte
	now        func() time.Time
}

func NewLocalStorage(baseURL, uploadsDir string, maxBytes int64, signingKey []byte) (*LocalStorage, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("upload signing key is required")
	}
	imagesDir := filepath.Join(uploadsDir, "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &LocalStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		imagesDir:  imagesDir,
		maxBytes:   maxBytes,
		signingKey: signingKey,
		now:        time.Now,
	}, nil
}

// cleanKey rejects absolute keys and keys that escape the images directory.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.imagesDir, filepath.FromSlash(k)), nil
}

func (s *LocalStorage) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiresIn time.Duration) (string, error) {
	if _, err := cleanKey(key); err != nil {
		return "", err
	}
	now := s.now()
	claims := uploadClaims{
		Key:         key,
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    uploadIssuer,
			ID:        uuid.NewString(),
		},
	}
	uploadToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload url: %w", err)
	}
	q := url.Values{}
	q.Set("key", key)
	q.Set("content_type", contentType)
	return fmt.Sprintf("%s/api/v1/storage/upload/%s?%s", s.baseURL, uploadToken, q.Encode()), nil
}

// VerifyUploadToken checks that token was issued by this store for exactly
// key and contentType and has not expired.
func (s *LocalStorage) VerifyUploadToken(token, key, contentType string) error {
	claims := &uploadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidUploadToken
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(uploadIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrUploadExpired
		}
		return ErrInvalidUploadToken
	}
	if !parsed.Valid || claims.Key != key || claims.ContentType != contentType {
		return ErrInvalidUploadToken
	}
	return nil
}

func (s *LocalStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := cleanKey(key); err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("key", key)
	return fmt.Sprintf("%s/api/v1/storage/download?%s", s.baseURL, q.Encode()), nil
}

func (s *LocalStorage) FileExists(ctx context.Context, key string) (bool, int64, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return false, 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, info.Size(), nil
}

func (s *LocalStorage) DeleteFile(ctx context.Context, key string) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) SaveFile(key string, reader io.Reader) error {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if s.maxBytes > 0 {
		reader = io.LimitReader(reader, s.maxBytes+1)
	}
	n, err := io.Copy(file, reader)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		file.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	logger.Debug("Stored file", "key", key, "bytes", n)
	return nil
}

func (s *LocalStorage) ReadFile(key string) (io.ReadCloser, error) {
	fullPath, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}
