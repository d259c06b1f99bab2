package utils

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pitchforge/pitchforge/config"
	"github.com/pitchforge/pitchforge/models"
)

// mediaPrefix namespaces all pitch images inside the bucket.
const mediaPrefix = "startups"

// MediaStore streams uploaded images to a MinIO/S3-compatible object store
// and hands back permanent public URLs. It performs exactly one attempt per
// upload; retry policy belongs to the caller, and in the submission pipeline
// the policy is "fail the whole submission".
type MediaStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMediaStore connects to the object store and ensures the bucket exists.
func NewMediaStore(cfg config.AppConfig) (*MediaStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MediaStore{
		client:     client,
		bucket:     cfg.MinioBucket,
		publicBase: strings.TrimSuffix(cfg.MinioPublicBaseURL, "/"),
	}, nil
}

// UploadImage streams the payload under a namespaced, collision-free key and
// returns the object key plus its permanent public URL.
func (s *MediaStore) UploadImage(ctx context.Context, filename, contentType string, r io.Reader, size int64) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	key := fmt.Sprintf("%s/%s%s", mediaPrefix, uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: put object %s: %v", models.ErrUploadFailed, key, err)
	}

	return key, s.publicURL(key), nil
}

// Remove deletes an object; used by the orphan sweeper only.
func (s *MediaStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MediaStore) publicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	scheme := "http"
	if s.client.EndpointURL().Scheme == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, key)
}
