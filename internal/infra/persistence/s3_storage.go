package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Storage struct {
	client S3API
	logger *zap.Logger
}

func NewS3Storage(cfg aws.Config, logger *zap.Logger) *S3Storage {
	return NewS3StorageWithClient(s3.NewFromConfig(cfg), logger)
}

func NewS3StorageWithClient(client S3API, logger *zap.Logger) *S3Storage {
	return &S3Storage{client: client, logger: logger}
}

// ObjectMetadata returns the x-amz-meta-* user metadata of an object. The SDK
// lowercases the keys.
func (s *S3Storage) ObjectMetadata(ctx context.Context, bucket, object string) (map[string]string, error) {
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, s.wrap(err, "head", bucket, object)
	}
	if output.Metadata == nil {
		return map[string]string{}, nil
	}
	return output.Metadata, nil
}

func (s *S3Storage) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, s.wrap(err, "get", bucket, object)
	}
	defer func() {
		if err := output.Body.Close(); err != nil {
			s.logger.Error("failed to close S3 object body", zap.String("bucket", bucket), zap.String("key", object), zap.Error(err))
		}
	}()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

func (s *S3Storage) wrap(err error, op, bucket, object string) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, object)
	}
	return fmt.Errorf("failed to %s S3 object %s/%s: %w", op, bucket, object, err)
}
