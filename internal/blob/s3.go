// Package blob stores uploaded images in an S3-compatible bucket and hands
// back stable URLs for embedding in note content.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"panne/internal/config"
)

var ErrUpload = errors.New("upload failed")

type Uploader interface {
	Upload(ctx context.Context, userID uint64, filename string, data []byte, contentType string) (string, error)
}

type S3Uploader struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewS3Uploader(ctx context.Context, cfg config.Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := strings.TrimSuffix(cfg.S3PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}

	return &S3Uploader{client: client, bucket: cfg.S3Bucket, publicBase: publicBase}, nil
}

// StorageKey buckets uploads per user with an unguessable name.
func StorageKey(userID uint64, filename string) string {
	return fmt.Sprintf("users/%d/images/%s%s", userID, uuid.New(), path.Ext(filename))
}

func (u *S3Uploader) Upload(ctx context.Context, userID uint64, filename string, data []byte, contentType string) (string, error) {
	key := StorageKey(userID, filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	return u.publicBase + "/" + key, nil
}
