package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig describes a MinIO (or other S3-compatible) endpoint.
type MinioConfig struct {
	Endpoint      string // host:port без схемы
	AccessKey     string
	SecretKey     string
	Secure        bool
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
	LinkTTL       time.Duration
}

type minioAPI interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinioUploader: загрузка отчётов через minio-go.
type MinioUploader struct {
	client minioAPI
	cfg    MinioConfig
	now    func() time.Time
}

var _ Uploader = (*MinioUploader)(nil)

// NewMinio creates the client; no request is sent until Upload.
func NewMinio(cfg MinioConfig) (*MinioUploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("upload: minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("upload: minio client: %w", err)
	}
	return newMinioUploader(client, cfg), nil
}

func newMinioUploader(client minioAPI, cfg MinioConfig) *MinioUploader {
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	return &MinioUploader{client: client, cfg: cfg, now: time.Now}
}

// Upload stores the file and returns the public or presigned URL.
func (u *MinioUploader) Upload(ctx context.Context, path, nameHint string) (string, error) {
	key := ObjectKey(u.cfg.Prefix, path, nameHint, u.now())
	_, err := u.client.FPutObject(ctx, u.cfg.Bucket, key, path, minio.PutObjectOptions{ContentType: ContentType(path)})
	if err != nil {
		return "", fmt.Errorf("upload: put %s/%s: %w", u.cfg.Bucket, key, err)
	}
	if u.cfg.PublicBaseURL != "" {
		return PublicURL(u.cfg.PublicBaseURL, key), nil
	}
	link, err := u.client.PresignedGetObject(ctx, u.cfg.Bucket, key, u.cfg.LinkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("upload: presign %s/%s: %w", u.cfg.Bucket, key, err)
	}
	return link.String(), nil
}
