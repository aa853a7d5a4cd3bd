// Package media resolves storage references to fetchable HTTPS URLs.
//
// Catalog audio URLs use the storage://bucket/path scheme. Each unique
// reference is resolved once through the object store and the result is
// cached for the life of the process; presigned URLs are requested with a
// TTL long enough that cache entries never need invalidating.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageScheme marks a URL as an unresolved storage reference.
const StorageScheme = "storage"

// ObjectStore turns a (bucket, object) pair into a fetchable URL.
type ObjectStore interface {
	PresignURL(ctx context.Context, bucket, object string) (string, error)
}

// MinioStore presigns GET URLs against an S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	ttl    time.Duration
}

// NewMinioStore connects to an S3-compatible object store.
func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool, ttl time.Duration) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store %s: %w", endpoint, err)
	}
	return &MinioStore{client: client, ttl: ttl}, nil
}

// PresignURL returns a presigned GET URL for the object.
func (s *MinioStore) PresignURL(ctx context.Context, bucket, object string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, bucket, object, s.ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, object, err)
	}
	return u.String(), nil
}

// Resolver caches storage-reference resolutions by raw reference string.
type Resolver struct {
	mu      sync.Mutex
	objects ObjectStore
	cache   map[string]string
	logger  *slog.Logger
}

// NewResolver creates a resolver over the given object store.
func NewResolver(objects ObjectStore, logger *slog.Logger) *Resolver {
	return &Resolver{
		objects: objects,
		cache:   make(map[string]string),
		logger:  logger,
	}
}

// IsStorageReference reports whether rawURL uses the storage scheme.
func IsStorageReference(rawURL string) bool {
	return strings.HasPrefix(rawURL, StorageScheme+"://")
}

// Resolve turns a storage reference into a fetchable URL. Non-storage URLs
// pass through unchanged. Resolutions are cached by the raw reference and
// never invalidated.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if !IsStorageReference(rawURL) {
		return rawURL, nil
	}

	r.mu.Lock()
	if resolved, ok := r.cache[rawURL]; ok {
		r.mu.Unlock()
		return resolved, nil
	}
	r.mu.Unlock()

	bucket, object, err := splitReference(rawURL)
	if err != nil {
		return "", err
	}
	resolved, err := r.objects.PresignURL(ctx, bucket, object)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rawURL, err)
	}

	r.mu.Lock()
	// A concurrent resolve for the same reference may have won; keep the
	// first entry so the cached URL is stable.
	if prior, ok := r.cache[rawURL]; ok {
		resolved = prior
	} else {
		r.cache[rawURL] = resolved
	}
	r.mu.Unlock()

	r.logger.Debug("resolved storage reference", "ref", rawURL)
	return resolved, nil
}

// splitReference parses storage://bucket/path/to/object.
func splitReference(rawURL string) (bucket, object string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse storage reference %q: %w", rawURL, err)
	}
	object = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || object == "" {
		return "", "", fmt.Errorf("malformed storage reference %q", rawURL)
	}
	return u.Host, object, nil
}
