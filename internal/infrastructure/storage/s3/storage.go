package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mlevkov/claimaudit/internal/core/domain"
)

// Storage keeps claim documents and rendered reports in an S3 bucket.
// A custom endpoint makes it work against S3-compatible stores as well.
type Storage struct {
	client *awss3.Client
	bucket string
}

type Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func New(ctx context.Context, bucket string, options Options) (*Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket name is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if options.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(options.Region))
	}
	if options.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKeyID, options.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = &options.Endpoint
			o.UsePathStyle = true
		}
	})

	return &Storage{client: client, bucket: bucket}, nil
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   data,
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.WrapError(domain.ErrNotFound, "s3.open", err)
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return out.Body, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

func validateKey(key string) error {
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return domain.WrapError(domain.ErrInvalidInput, "s3.validate_key",
				fmt.Errorf("path traversal detected in storage key"))
		}
	}
	return nil
}
