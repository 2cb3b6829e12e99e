package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/chatline/chatline/internal/config"
)

// Uploader hands out presigned S3 PUT URLs so clients upload profile
// pictures and message images directly to object storage; the API only
// stores the resulting object reference.
type Uploader struct {
	cfg config.StorageConfig
}

func NewUploader(cfg config.StorageConfig) *Uploader {
	return &Uploader{cfg: cfg}
}

func (u *Uploader) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(u.cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.S3AccessKey,
			u.cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if u.cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.S3BaseEndpoint)
		}
	})

	return s3.NewPresignClient(client), nil
}

// objectKey returns a date-partitioned random key under the given prefix.
func objectKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%v", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

// PresignedPutURL returns the object key and a PUT URL valid for 15 minutes.
func (u *Uploader) PresignedPutURL(ctx context.Context, prefix string) (string, string, error) {
	presignClient, err := u.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := u.cfg.S3Bucket
	key := objectKey(prefix)

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign put: %w", err)
	}

	return key, req.URL, nil
}
