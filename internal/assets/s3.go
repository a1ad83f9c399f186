package assets

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// S3Config options for the S3 backend.
type S3Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // optional static credentials
	SecretAccessKey string
	Endpoint        string // optional custom endpoint for S3-compatible services
	UsePathStyle    bool
	PublicBaseURL   string // optional CDN or bucket website URL used instead of the upload location
}

// S3Store is an S3-compatible implementation of Store.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Store builds an S3 client from cfg. Credentials come from cfg when
// set, otherwise from the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	var s3Options []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Options...)

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads body with a public-read ACL.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (*Object, error) {
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return nil, wrapAPIError(err, "upload "+key)
	}

	url := out.Location
	if s.baseURL != "" {
		url = s.baseURL + "/" + key
	}
	return &Object{URL: url, Key: key}, nil
}

// Delete removes key from the bucket. S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapAPIError(err, "delete "+key)
	}
	return nil
}

// wrapAPIError adds the service error code to the message when there is one.
func wrapAPIError(err error, msg string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Wrapf(err, "%s (%s)", msg, apiErr.ErrorCode())
	}
	return errors.Wrap(err, msg)
}
