package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dune005/syfte/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrDisabled = errors.New("file storage is not configured")

// Storage is the object store used for user uploads (avatars).
type Storage interface {
	Save(ctx context.Context, path string, body io.Reader, contentType string) error
	Delete(ctx context.Context, path string) error
	// URL returns a time-limited URL; public objects get the long expiry.
	URL(ctx context.Context, path string, public bool) (string, error)
}

// S3Storage works with AWS S3 and S3-compatible services (MinIO, R2, Spaces).
type S3Storage struct {
	client               *s3.Client
	presignClient        *s3.PresignClient
	bucket               string
	directURL            string
	presignExpiryPublic  time.Duration
	presignExpiryPrivate time.Duration
}

type S3Config struct {
	Region               string
	Bucket               string
	AccessKey            string
	SecretKey            string
	Endpoint             string // optional, for S3-compatible services
	PresignExpiryPublic  time.Duration
	PresignExpiryPrivate time.Duration
}

// New returns S3 storage when a bucket is configured, ErrDisabled otherwise.
func New(ctx context.Context, c *config.Config) (Storage, error) {
	if !c.StorageEnabled() {
		return nil, ErrDisabled
	}

	slog.Info("initializing S3 storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewS3Storage(ctx, S3Config{
		Region:               c.S3Region,
		Bucket:               c.S3Bucket,
		AccessKey:            c.S3AccessKey,
		SecretKey:            c.S3SecretKey,
		Endpoint:             c.S3Endpoint,
		PresignExpiryPublic:  c.S3PresignExpiryPublic,
		PresignExpiryPrivate: c.S3PresignExpiryPrivate,
	})
}

func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // MinIO needs path-style addressing
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	directURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	if cfg.Endpoint != "" {
		directURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	st := &S3Storage{
		client:               client,
		presignClient:        s3.NewPresignClient(client),
		bucket:               cfg.Bucket,
		directURL:            directURL,
		presignExpiryPublic:  cfg.PresignExpiryPublic,
		presignExpiryPrivate: cfg.PresignExpiryPrivate,
	}

	if err := st.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return st, nil
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	slog.Info("created S3 bucket", "bucket", s.bucket)
	return nil
}

func (s *S3Storage) Save(ctx context.Context, path string, body io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// URL presigns a GET. Falls back to the direct object URL if presigning fails.
func (s *S3Storage) URL(ctx context.Context, path string, public bool) (string, error) {
	expiry := s.presignExpiryPrivate
	if public {
		expiry = s.presignExpiryPublic
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		slog.Warn("failed to presign URL, using direct URL", "error", err, "path", path)
		return fmt.Sprintf("%s/%s", s.directURL, path), nil
	}

	return req.URL, nil
}
