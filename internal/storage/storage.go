package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines the object operations common to the backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ErrUnsupportedType is returned when an upload is not an image.
var ErrUnsupportedType = errors.New("unsupported image type")

const imageKeyPrefix = "recipes/"

// Images stores recipe image objects on a backend under opaque keys.
type Images struct {
	backend ObjectStorage
}

// NewImages constructs an image store over the provided backend.
func NewImages(backend ObjectStorage) *Images {
	return &Images{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Images) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Save uploads an image and returns the generated object key. Only image/*
// content types are accepted.
func (s *Images) Save(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedType
	}
	key := imageKeyPrefix + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if err := s.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Open returns a reader for a stored image.
func (s *Images) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Remove deletes a stored image.
func (s *Images) Remove(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
