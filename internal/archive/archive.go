// Package archive copies successfully imported files to MinIO or any
// S3-compatible object store.
package archive

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JonMunkholm/logistic/internal/config"
	"github.com/JonMunkholm/logistic/internal/core"
)

// objectStore is the subset of *minio.Client used here.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioArchiver implements core.Archiver.
type MinioArchiver struct {
	client objectStore
	bucket string
	region string
	now    func() time.Time
}

var _ core.Archiver = (*MinioArchiver)(nil)

// New builds an archiver from cfg. Endpoint may be host:port or a URL; an
// https scheme forces TLS.
func New(cfg config.ArchiveConfig) (*MinioArchiver, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	endpoint, useSSL := cfg.Endpoint, cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = useSSL || u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioArchiver{client: client, bucket: cfg.Bucket, region: cfg.Region, now: time.Now}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (a *MinioArchiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: a.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Archive uploads file under <kind>/<yyyy>/<mm>/<name>.
func (a *MinioArchiver) Archive(ctx context.Context, kind string, file core.StagedFile) error {
	key := ObjectKey(kind, file.Name, a.now())
	_, err := a.client.FPutObject(ctx, a.bucket, key, file.Path, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s/%s: %w", file.Name, a.bucket, key, err)
	}
	return nil
}

// ObjectKey is the object name a file is archived under.
func ObjectKey(kind, name string, at time.Time) string {
	at = at.UTC()
	return path.Join(kind, fmt.Sprintf("%04d", at.Year()), fmt.Sprintf("%02d", int(at.Month())), path.Base(name))
}
