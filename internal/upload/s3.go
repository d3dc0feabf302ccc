package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config describes the target bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-совместимое хранилище; если пусто, то AWS
	AccessKey string
	SecretKey string
	PathStyle bool
	Prefix    string
	// PublicBaseURL, если задан, используется вместо подписанной ссылки.
	PublicBaseURL string
	LinkTTL       time.Duration
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Uploader загружает отчёты в S3 и возвращает подписанную ссылку на скачивание.
type S3Uploader struct {
	objects objectPutter
	presign objectPresigner
	cfg     S3Config
	now     func() time.Time
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3 loads the default AWS credential chain unless static keys are given.
func NewS3(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("upload: s3 bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("upload: load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return newS3Uploader(client, s3.NewPresignClient(client), cfg), nil
}

func newS3Uploader(objects objectPutter, presign objectPresigner, cfg S3Config) *S3Uploader {
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	return &S3Uploader{objects: objects, presign: presign, cfg: cfg, now: time.Now}
}

// Upload puts the file under ObjectKey and returns either the public URL or a presigned GET URL.
func (u *S3Uploader) Upload(ctx context.Context, path, nameHint string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	key := ObjectKey(u.cfg.Prefix, path, nameHint, u.now())
	_, err = u.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ContentType(path)),
	})
	if err != nil {
		return "", fmt.Errorf("upload: put %s/%s: %w", u.cfg.Bucket, key, err)
	}

	if u.cfg.PublicBaseURL != "" {
		return PublicURL(u.cfg.PublicBaseURL, key), nil
	}
	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.cfg.LinkTTL))
	if err != nil {
		return "", fmt.Errorf("upload: presign %s/%s: %w", u.cfg.Bucket, key, err)
	}
	return req.URL, nil
}
