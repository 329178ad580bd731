package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	cfg "github.com/craftfolio/portfolio-server-go/internal/config"
)

// S3Storage stores objects in an S3-compatible bucket (AWS S3 or MinIO).
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Storage(ctx context.Context, c *cfg.Config) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3AccessKey,
			c.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.S3Bucket, c.S3Region)
	if c.S3Endpoint != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(c.S3Endpoint, "/"), c.S3Bucket)
	}

	return &S3Storage{
		client:    client,
		bucket:    c.S3Bucket,
		publicURL: publicURL,
	}, nil
}

// randomKey builds a date-partitioned object key under folder.
func randomKey(folder string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", folder, d.Year(), int(d.Month()), d.Day(), uuid.New())
}

func (s *S3Storage) Upload(ctx context.Context, body io.Reader, contentType, folder string) (*UploadResult, error) {
	key := randomKey(folder)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	return &UploadResult{
		URL: fmt.Sprintf("%s/%s", s.publicURL, key),
		Key: key,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
