package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/config"
)

// presigner abstracts the S3 presign client for tests.
type presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// URLSigner presigns bucket object keys so mobile clients can fetch
// notification images directly.
type URLSigner struct {
	presign   presigner
	bucket    string
	expiresIn time.Duration
	logger    *zap.Logger
}

// NewURLSigner builds the signer from static credentials and region config.
func NewURLSigner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*URLSigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Storage.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &URLSigner{
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Storage.Bucket,
		expiresIn: cfg.Storage.URLExpiry(),
		logger:    logger,
	}, nil
}

// NormalizeKey rewrites legacy image path prefixes onto the bucket's current
// layout. Full URLs pass through untouched.
func NormalizeKey(key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	for _, prefix := range []string{
		"notification/image/",
		"notification/images/",
		"notifications/image/",
	} {
		if strings.HasPrefix(key, prefix) {
			return "notifications/images/" + key[len(prefix):]
		}
	}
	return key
}

// SignURL presigns one object key. Keys that are already full URLs are
// returned as-is, and signing failures fall back to the original path so a
// broken image never fails the whole response.
func (s *URLSigner) SignURL(ctx context.Context, key string) string {
	normalized := NormalizeKey(key)
	if strings.HasPrefix(normalized, "http://") || strings.HasPrefix(normalized, "https://") {
		return normalized
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(normalized),
	}, s3.WithPresignExpires(s.expiresIn))
	if err != nil {
		s.logger.Warn("failed to presign image url",
			zap.String("key", normalized),
			zap.Error(err),
		)
		return key
	}
	return req.URL
}

// SignURLs presigns a list of keys, preserving order.
func (s *URLSigner) SignURLs(ctx context.Context, keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	signed := make([]string, 0, len(keys))
	for _, key := range keys {
		signed = append(signed, s.SignURL(ctx, key))
	}
	return signed
}
