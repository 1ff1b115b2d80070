package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/smith-xyz/golang-stackdepth/pkg/models"
)

// S3Config holds the connection settings of an S3ReportStore
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3ReportStore keeps records in a JSON array object. Like FileReportStore
// it never creates the object: it must exist before the first Append.
type S3ReportStore struct {
	client *minio.Client
	bucket string
	key    string
	indent string
}

// ParseS3URL splits s3://bucket/key into its bucket and key
func ParseS3URL(dest string) (bucket, key string, err error) {
	if !IsS3URL(dest) {
		return "", "", fmt.Errorf("not an s3 url: %s", dest)
	}
	rest := strings.TrimPrefix(dest, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	bucket = strings.TrimSpace(bucket)
	key = strings.Trim(strings.TrimSpace(key), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url must be s3://bucket/key: %s", dest)
	}
	return bucket, key, nil
}

// NewS3ReportStore creates a store for the object named by dest (s3://bucket/key)
func NewS3ReportStore(cfg S3Config, dest, indent string) (*S3ReportStore, error) {
	bucket, key, err := ParseS3URL(dest)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3ReportStore{
		client: client,
		bucket: bucket,
		key:    key,
		indent: indent,
	}, nil
}

// Append adds record to the array stored in the object
func (s *S3ReportStore) Append(ctx context.Context, record models.StackReportRecord) error {
	if _, err := s.client.StatObject(ctx, s.bucket, s.key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: s3://%s/%s", ErrStoreNotFound, s.bucket, s.key)
		}
		return fmt.Errorf("stat s3://%s/%s: %w", s.bucket, s.key, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	data, err := io.ReadAll(obj)
	obj.Close()
	if err != nil {
		return fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key, err)
	}

	out, err := AppendRecord(data, record, s.indent)
	if err != nil {
		return fmt.Errorf("failed to update s3://%s/%s: %w", s.bucket, s.key, err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(out), int64(len(out)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}
