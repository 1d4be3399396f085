package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"inventory-loader/internal/config"
)

// objectGetter is the part of *s3.Client the fetcher uses.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads documents from S3-compatible storage (AWS S3 or MinIO).
type S3Fetcher struct {
	cfg    config.S3Config
	logger zerolog.Logger

	// newClient builds the client on first fetch; replaced in tests.
	newClient func(ctx context.Context, cfg config.S3Config) (objectGetter, error)
	client    objectGetter
}

// NewS3Fetcher creates an S3 fetcher. Credentials come from cfg when set,
// otherwise from the default AWS credential chain.
func NewS3Fetcher(cfg *config.S3Config, logger zerolog.Logger) *S3Fetcher {
	f := &S3Fetcher{
		logger:    logger.With().Str("fetcher", "s3").Logger(),
		newClient: newS3Client,
	}
	if cfg != nil {
		f.cfg = *cfg
	}
	return f
}

func newS3Client(ctx context.Context, cfg config.S3Config) (objectGetter, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// ParseS3URI splits s3://bucket/key into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 uri %q: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: want s3://bucket/key", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: missing object key", uri)
	}
	return u.Host, key, nil
}

// Fetch downloads the object named by an s3:// URI.
func (f *S3Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	if f.client == nil {
		client, err := f.newClient(ctx, f.cfg)
		if err != nil {
			return nil, err
		}
		f.client = client
	}

	f.logger.Debug().Str("bucket", bucket).Str("key", key).Msg("downloading source object")

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var noSuchBucket *types.NoSuchBucket
		if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", uri, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", uri, err)
	}
	return content, nil
}
