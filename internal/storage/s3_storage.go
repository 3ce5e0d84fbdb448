package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Storage archives raw import uploads so a batch can always be traced back
// to the exact file an admin uploaded.
type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// If credentials are provided, use them. Otherwise, use the default
	// credential chain (env vars, ~/.aws/credentials, IAM role).
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(region),
		)
		if err != nil {
			cfg = aws.Config{
				Region: region,
			}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: baseURL,
	}
}

// Archive uploads the raw file under a unique key and returns its URL.
func (s *S3Storage) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	key := fmt.Sprintf("imports/%s%s", uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive upload: %w", err)
	}

	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key), nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key), nil
}
