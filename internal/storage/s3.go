package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "paperless/internal/errors"
)

const presignTTL = 15 * time.Minute

// S3Options configures S3Storage.
type S3Options struct {
	Bucket string
	Region string
	// Endpoint points at an S3-compatible service such as LocalStack.
	Endpoint string
	// AccessKey and SecretKey, when both set, replace the default
	// credential chain.
	AccessKey string
	SecretKey string
	Prefix    string
}

// S3Storage stores files as objects in a bucket.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	prefix    string
}

var _ Storage = (*S3Storage)(nil)

// NewS3Storage loads AWS configuration and builds the client.
func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		prefix:    opts.Prefix,
	}, nil
}

func (s *S3Storage) key(name string) string {
	return s.prefix + name
}

// Put buffers the upload so the SDK gets a seekable body with a known length.
func (s *S3Storage) Put(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		if errors.Is(err, apperrors.ErrFileTooLarge) {
			return "", err
		}
		return "", apperrors.Storage("read upload", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.Storage("put object", err)
	}
	return "s3://" + s.bucket + "/" + s.key(name), nil
}

func (s *S3Storage) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	if err := validName(name); err != nil {
		return nil, 0, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, 0, apperrors.ErrFileMissing
		}
		return nil, 0, apperrors.Storage("get object", err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

func (s *S3Storage) Remove(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return apperrors.Storage("delete object", err)
	}
	return nil
}

// URL returns a presigned GET link that expires after a short while.
func (s *S3Storage) URL(ctx context.Context, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", apperrors.Storage("presign get object", err)
	}
	return req.URL, nil
}
