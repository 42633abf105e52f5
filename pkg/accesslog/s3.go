package accesslog

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the export uploader
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // Optional, for MinIO or custom endpoints
	AccessKey    string // Optional; default credential chain when empty
	SecretKey    string
	UsePathStyle bool
	KeyPrefix    string // Object key prefix, e.g. "access-exports"
}

// S3Uploader ships serialized exports to object storage
type S3Uploader struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3Uploader creates an uploader for access log exports
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	ctx := context.Background()

	var awsConfig aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{client: client, cfg: cfg}, nil
}

// Upload stores one export under a timestamped key and returns the key
func (u *S3Uploader) Upload(ctx context.Context, format ExportFormat, data []byte) (string, error) {
	key := fmt.Sprintf("access-log-%s.%s", time.Now().UTC().Format("20060102T150405Z"), format)
	if u.cfg.KeyPrefix != "" {
		key = u.cfg.KeyPrefix + "/" + key
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(format.ContentType()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	return key, nil
}
