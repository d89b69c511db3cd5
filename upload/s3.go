package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Azhovan/formrig"
)

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint overrides the AWS endpoint (e.g., "https://s3.wasabisys.com" or a MinIO
	// URL). Path-style addressing is used whenever it is set.
	Endpoint string

	// KeyPrefix is prepended to every object key (e.g., "avatars/").
	KeyPrefix string
}

// putObjectAPI is the part of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads files with PutObject.
type S3 struct {
	client    putObjectAPI
	bucket    string
	keyPrefix string
}

// NewS3 creates an S3 uploader. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 upload: bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3WithClient(client, cfg.Bucket, cfg.KeyPrefix), nil
}

func newS3WithClient(client putObjectAPI, bucket, keyPrefix string) *S3 {
	return &S3{client: client, bucket: bucket, keyPrefix: keyPrefix}
}

// Upload puts the file under KeyPrefix+key and returns its s3:// location.
// The call is made once; errors are returned unchanged for the caller to handle.
func (u *S3) Upload(ctx context.Context, key string, f formrig.FileRef) (string, error) {
	objectKey := path.Join(strings.TrimSuffix(u.keyPrefix, "/"), path.Base(key))

	body, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer body.Close()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentLength: aws.Int64(f.Size),
	}
	if f.ContentType != "" {
		input.ContentType = aws.String(f.ContentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}

	location := "s3://" + u.bucket + "/" + objectKey
	slog.Debug("file uploaded", "key", objectKey, "bytes", f.Size, "location", location)
	return location, nil
}
