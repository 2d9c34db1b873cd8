package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"skillmart/internal/config"
	"skillmart/internal/services/media"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotConfigured is returned by New when the S3 settings are incomplete.
var ErrNotConfigured = errors.New("storage: S3 settings are incomplete")

// Client is an S3-backed media.Store.
type Client struct {
	s3         *s3.Client
	presign    *s3.PresignClient
	bucket     string
	region     string
	publicBase string
	presignTTL time.Duration
}

var _ media.Store = (*Client)(nil)

// New builds an S3 client from static credentials. S3_ENDPOINT switches to
// path-style addressing for MinIO and similar.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	if !cfg.StorageConfigured() {
		return nil, ErrNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID, cfg.S3SecretAccessKey, cfg.S3SessionToken,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3:         client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.S3Bucket,
		region:     cfg.S3Region,
		publicBase: publicBase(cfg),
		presignTTL: time.Duration(cfg.S3PresignTTLSec) * time.Second,
	}, nil
}

// PresignPut returns a URL the browser can PUT the object to directly.
func (c *Client) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(c.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

func (c *Client) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get opens the object. A missing key maps to media.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) (*media.Object, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, media.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	return &media.Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

// Delete removes the object. S3 treats a missing key as success.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return c.publicBase + "/" + key
}

// KeyFromURL accepts the public URL form, either AWS virtual-host form, and
// the image proxy form carrying the key in ?key=.
func (c *Client) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(rawURL, c.publicBase, c.bucket, c.region)
}

func publicBase(cfg config.Config) string {
	if cfg.S3PublicBaseURL != "" {
		return strings.TrimRight(cfg.S3PublicBaseURL, "/")
	}
	return awsBase(cfg.S3Bucket, cfg.S3Region)
}

func awsBase(bucket, region string) string {
	if region == "us-east-1" {
		return "https://" + bucket + ".s3.amazonaws.com"
	}
	return "https://" + bucket + ".s3." + region + ".amazonaws.com"
}

func keyFromURL(rawURL, base, bucket, region string) (string, bool) {
	if rawURL == "" {
		return "", false
	}

	for _, prefix := range []string{
		base + "/",
		"https://" + bucket + ".s3.amazonaws.com/",
		"https://" + bucket + ".s3." + region + ".amazonaws.com/",
	} {
		if key, ok := strings.CutPrefix(rawURL, prefix); ok {
			key, _, _ = strings.Cut(key, "?")
			unescaped, err := url.PathUnescape(key)
			if err != nil || unescaped == "" {
				return "", false
			}
			return unescaped, true
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Path, "/image") {
		return "", false
	}
	key := u.Query().Get("key")
	return key, key != ""
}
