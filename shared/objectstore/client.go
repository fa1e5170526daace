package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds S3-compatible object storage configuration
type Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	CustomDomain string // public base URL for uploaded objects
	UsePathStyle bool
}

// Client provides object storage operations over an S3-compatible API
type Client struct {
	s3     *s3.Client
	config *Config
	logger *slog.Logger
}

// UploadOptions configures an upload
type UploadOptions struct {
	ContentType string
}

// NewClient creates an object storage client
func NewClient(ctx context.Context, config *Config, logger *slog.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKey,
			config.SecretKey,
			"",
		)),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		// MinIO and most S3-compatible stores require path-style addressing
		o.UsePathStyle = config.UsePathStyle
	})

	logger.Info("Object storage client initialized",
		slog.String("endpoint", config.Endpoint),
		slog.String("bucket", config.Bucket),
	)

	return &Client{s3: client, config: config, logger: logger}, nil
}

// Upload puts an object under key and returns its public URL
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, opts UploadOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		c.logger.Error("Failed to upload object",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	url := c.PublicURL(key)

	c.logger.Debug("Object uploaded",
		slog.String("key", key),
		slog.String("url", url),
	)

	return url, nil
}

// PublicURL computes the public URL for an object key from the custom domain
func (c *Client) PublicURL(key string) string {
	base := strings.TrimSuffix(c.config.CustomDomain, "/")
	return base + "/" + key
}
