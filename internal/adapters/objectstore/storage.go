package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"conferencecompanion/internal/domain"
)

// S3Config holds configuration for an S3 bucket.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Config holds configuration for creating image storage.
type Config struct {
	Provider  string
	PublicURL string
	LocalDir  string
	S3        S3Config
}

// New creates image storage from config. Provider "s3" uploads to a bucket; "local" or unknown writes to LocalDir.
func New(config Config, logger *slog.Logger) (domain.ImageStorage, error) {
	switch config.Provider {
	case "s3":
		if config.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		awsCfg := aws.Config{
			Region: config.S3.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					config.S3.AccessKeyID,
					config.S3.SecretAccessKey,
					"",
				),
			),
		}
		publicURL := config.PublicURL
		if publicURL == "" {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", config.S3.Bucket, config.S3.Region)
		}
		return NewS3Storage(s3.NewFromConfig(awsCfg), config.S3.Bucket, publicURL), nil
	case "local", "":
		return NewLocalStorage(config.LocalDir, config.PublicURL), nil
	default:
		logger.Warn("unknown storage provider, using local", "provider", config.Provider)
		return NewLocalStorage(config.LocalDir, config.PublicURL), nil
	}
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage uploads images to an S3 bucket and returns their public URL.
type S3Storage struct {
	client    putObjectAPI
	bucket    string
	publicURL string
}

func NewS3Storage(client putObjectAPI, bucket, publicURL string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, publicURL: strings.TrimSuffix(publicURL, "/")}
}

// Upload implements domain.ImageStorage.
func (s *S3Storage) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", path, err)
	}
	return s.publicURL + "/" + path, nil
}

// LocalStorage writes images under a directory. Used in development.
type LocalStorage struct {
	dir       string
	publicURL string
}

func NewLocalStorage(dir, publicURL string) *LocalStorage {
	if dir == "" {
		dir = "uploads"
	}
	return &LocalStorage{dir: dir, publicURL: strings.TrimSuffix(publicURL, "/")}
}

// Upload implements domain.ImageStorage.
func (s *LocalStorage) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	clean := filepath.Clean("/" + path)[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid path %q", path)
	}
	full := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	if s.publicURL == "" {
		return "file://" + full, nil
	}
	return s.publicURL + "/" + filepath.ToSlash(clean), nil
}
