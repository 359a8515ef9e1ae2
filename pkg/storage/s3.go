package storage

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
	"go.uber.org/zap"

	"github.com/lanting-project/lanting-api/pkg/config"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
)

// S3Store implements ObjectStore on top of an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Store builds the S3 client from static credentials.
func NewS3Store(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
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

	return &S3Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Put uploads data under its content-addressed key. An object that already
// exists at the key is left untouched and its path returned.
func (s *S3Store) Put(ctx context.Context, dir, filename string, data []byte) (string, error) {
	key := ObjectKey(dir, filename, data)

	exists, err := s.exists(ctx, key)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrStorageFailed.Code, appErrors.ErrStorageFailed.Status, "check object existence")
	}
	if exists {
		return key, nil
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		s.logger.Error("s3 put failed", zap.String("key", key), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrStorageFailed.Code, appErrors.ErrStorageFailed.Status, "upload object")
	}
	return key, nil
}

// Get downloads an object by path.
func (s *S3Store) Get(ctx context.Context, objectPath string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectPath),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrFileNotFound, "")
		}
		s.logger.Error("s3 get failed", zap.String("key", objectPath), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailed.Code, appErrors.ErrStorageFailed.Status, "download object")
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageFailed.Code, appErrors.ErrStorageFailed.Status, "read object body")
	}
	return data, nil
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
