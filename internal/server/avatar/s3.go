package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"taskkeeper/internal/common"
)

// S3Config carries the settings for an S3-compatible avatar backend
// (MinIO in development, S3 proper in production).
type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store keeps avatars as objects named avatars/<userID>.png.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a client with static credentials and an optional custom
// endpoint and returns a store over the configured bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(userID string) string {
	return fmt.Sprintf("avatars/%s.png", userID)
}

// Set uploads the PNG, replacing any previous object.
func (s *S3Store) Set(ctx context.Context, userID string, png []byte) error {
	key := objectKey(userID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("uploading avatar: %w", err)
	}
	return nil
}

// Get downloads the PNG; a missing object reads as not found.
func (s *S3Store) Get(ctx context.Context, userID string) ([]byte, error) {
	key := objectKey(userID)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("downloading avatar: %w", err)
	}
	defer out.Body.Close()

	png, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading avatar body: %w", err)
	}
	return png, nil
}

// Delete removes the object. S3 deletes are idempotent, so an absent object
// is not an error.
func (s *S3Store) Delete(ctx context.Context, userID string) error {
	key := objectKey(userID)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("deleting avatar: %w", err)
	}
	return nil
}
