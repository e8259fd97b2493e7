// Package storage provides receipt storage backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	financeapp "github.com/bakery/ledger/internal/application/finance"
	infraconfig "github.com/bakery/ledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ financeapp.ReceiptStore = (*S3ReceiptStorage)(nil)

// S3ReceiptStorage stores receipt files in an S3-compatible bucket (AWS S3, MinIO, RustFS)
type S3ReceiptStorage struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	endpoint          *url.URL
	usePathStyle      bool
	publicBaseURL     string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3ReceiptStorageOption is a functional option for configuring S3ReceiptStorage
type S3ReceiptStorageOption func(*S3ReceiptStorage)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3ReceiptStorageOption {
	return func(s *S3ReceiptStorage) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long signed receipt links stay valid
func WithPresignExpiration(d time.Duration) S3ReceiptStorageOption {
	return func(s *S3ReceiptStorage) {
		s.presignExpiration = d
	}
}

// NewS3ReceiptStorage creates a receipt store from configuration
func NewS3ReceiptStorage(cfg *infraconfig.StorageConfig, opts ...S3ReceiptStorageOption) (*S3ReceiptStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	endpointURL, err := url.Parse(endpoint)
	if err != nil || endpointURL.Host == "" {
		return nil, fmt.Errorf("invalid storage endpoint %q", endpoint)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		// S3-compatible servers do not all accept the newer default checksum headers
		config.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	storage := &S3ReceiptStorage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		endpoint:          endpointURL,
		usePathStyle:      cfg.UsePathStyle,
		publicBaseURL:     strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(storage)
	}
	if storage.presignExpiration == 0 {
		storage.presignExpiration = 15 * time.Minute
	}

	return storage, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Called once at startup.
func (s *S3ReceiptStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating receipt bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put writes the receipt and returns its stable URL
func (s *S3ReceiptStorage) Put(ctx context.Context, obj financeapp.ReceiptObject) (string, error) {
	if obj.Key == "" {
		return "", errors.New("storage key is required")
	}
	if obj.Body == nil {
		return "", errors.New("receipt body is required")
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(obj.Key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	s.logger.Debug("receipt uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", obj.Key),
		zap.Int64("size", obj.Size),
	)
	return s.ObjectURL(obj.Key), nil
}

// Delete removes a receipt. Deleting a missing key succeeds.
func (s *S3ReceiptStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}

// SignedURL returns a time-limited GET link for a receipt in a private bucket
func (s *S3ReceiptStorage) SignedURL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign receipt URL: %w", err)
	}
	return req.URL, time.Now().Add(s.presignExpiration), nil
}

// ObjectURL is the unsigned URL of key: under PublicBaseURL when set,
// otherwise addressed on the endpoint in the configured style.
func (s *S3ReceiptStorage) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + escaped
	}
	if s.usePathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", s.endpoint.Scheme, s.endpoint.Host, s.bucket, escaped)
	}
	return fmt.Sprintf("%s://%s.%s/%s", s.endpoint.Scheme, s.bucket, s.endpoint.Host, escaped)
}

// Bucket returns the bucket name
func (s *S3ReceiptStorage) Bucket() string {
	return s.bucket
}

// escapeKey escapes each path segment of an object key
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
