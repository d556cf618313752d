package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint points at an S3-compatible service; empty means AWS.
	Endpoint string
	// PublicURL prefixes object keys in returned URLs.
	PublicURL string
}

type S3Host struct {
	client    s3API
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewS3Host(ctx context.Context, cfg S3Config) (*S3Host, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Host(client, cfg), nil
}

func newS3Host(client s3API, cfg S3Config) *S3Host {
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		if cfg.Endpoint != "" {
			public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &S3Host{client: client, bucket: cfg.Bucket, publicURL: public, now: time.Now}
}

func (h *S3Host) objectKey() string {
	d := h.now().UTC()
	return fmt.Sprintf("images/%04d/%02d/%02d/%s.jpg", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (h *S3Host) Upload(ctx context.Context, obj Object) (Asset, error) {
	key := h.objectKey()
	in := &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := h.client.PutObject(ctx, in); err != nil {
		return Asset{}, fmt.Errorf("put object: %w", err)
	}
	return Asset{URL: h.publicURL + "/" + key, Handle: key}, nil
}

func (h *S3Host) Delete(ctx context.Context, handle string) error {
	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
