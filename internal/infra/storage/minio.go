package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/gumrukcum/gumrukcum-api/internal/domain/analysis"
)

// Config for the image archive. PublicURL, when set, replaces the
// endpoint in returned object URLs (CDN or reverse proxy in front of MinIO).
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string
}

// Store archives analysed images in a MinIO/S3 bucket.
type Store struct {
	client *minio.Client
	bucket string
	base   string
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: cli, bucket: cfg.Bucket, base: baseURL(cli.EndpointURL(), cfg.PublicURL)}, nil
}

// PutImage implements analysis.ImageArchive.
func (s *Store) PutImage(ctx context.Context, key string, img *domain.Image) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.MIMEType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	// public URL when the bucket is public; private buckets need a presigned URL
	return objectURL(s.base, s.bucket, key), nil
}

func baseURL(endpoint *url.URL, public string) string {
	if public != "" {
		return strings.TrimRight(public, "/")
	}
	return endpoint.Scheme + "://" + endpoint.Host
}

func objectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", base, bucket, strings.TrimLeft(key, "/"))
}
