// Package export uploads standings snapshots to S3 compatible object storage.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"unostat-app/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrInvalidConfig = errors.New("invalid export configuration")

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter writes snapshots to a bucket. It works with AWS S3, Cloudflare R2 and
// other services speaking the S3 API.
type S3Exporter struct {
	client    objectPutter
	bucket    string
	publicURL string
}

func NewS3Exporter(ctx context.Context, cfg config.ExportConfig) (*S3Exporter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, fmt.Errorf("%w: access key id and secret must be set together", ErrInvalidConfig)
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	endpoint := endpointFor(cfg)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Exporter{client: client, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

// endpointFor returns the custom endpoint, if any. An explicit endpoint wins over the
// R2 endpoint derived from the account ID.
func endpointFor(cfg config.ExportConfig) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/")
	}
	if cfg.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	return ""
}

// Put uploads body as JSON and returns its public URL, or "" without a public base URL.
func (e *S3Exporter) Put(ctx context.Context, key string, body []byte) (string, error) {
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object (key: %s): %w", key, err)
	}
	return publicURL(e.publicURL, key), nil
}

func publicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
