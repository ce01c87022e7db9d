// Package storage uploads media files to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrEmptyFile is returned for a zero-length upload.
var ErrEmptyFile = errors.New("file is empty")

// ObjectPutter is the part of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object describes a stored file.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// FileStorage stores uploaded files and returns where they can be fetched.
type FileStorage interface {
	Upload(ctx context.Context, folder, filename, contentType string, body []byte) (*Object, error)
}

type s3Storage struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Storage builds a FileStorage for the configured bucket.
func NewS3Storage(cfg config.S3Config) (FileStorage, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return newS3Storage(s3.New(opts), cfg.Bucket, publicBaseURL(cfg)), nil
}

func newS3Storage(client ObjectPutter, bucket, baseURL string) *s3Storage {
	return &s3Storage{client: client, bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/"), now: time.Now}
}

// publicBaseURL is the prefix objects are served under.
func publicBaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case cfg.Endpoint != "":
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func (s *s3Storage) Upload(ctx context.Context, folder, filename, contentType string, body []byte) (*Object, error) {
	key := ObjectKey(folder, filename, s.now())
	if len(body) == 0 {
		return nil, &apperrors.UploadError{Path: key, Err: ErrEmptyFile}
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String("public, max-age=3600"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, &apperrors.UploadError{Path: key, Err: err}
	}

	return &Object{Key: key, URL: s.baseURL + "/" + key}, nil
}

// ObjectKey names an upload as <folder>/<unix-ms>-<rand6>.<ext>. The folder
// is cleaned so it cannot climb out of the bucket root.
func ObjectKey(folder, filename string, at time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = "bin"
	}
	name := fmt.Sprintf("%d-%s.%s", at.UnixMilli(), randomSuffix(), ext)

	folder = strings.Trim(path.Clean("/"+strings.ReplaceAll(folder, `\`, "/")), "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
