// Package s3 stores blobs in an S3 compatible bucket (AWS, Cloudflare R2,
// MinIO). Directories are key prefixes.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/itchan-dev/eventboard/backend/internal/service"
	"github.com/itchan-dev/eventboard/backend/internal/utils"
	"github.com/itchan-dev/eventboard/shared/config"
	internal_errors "github.com/itchan-dev/eventboard/shared/errors"
	"github.com/itchan-dev/eventboard/shared/middleware/metrics"
)

const (
	backendName     = "s3"
	deleteBatchSize = 1000
)

// API is the subset of *s3.Client the store uses.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Storage struct {
	client API
	bucket string
	prefix string
}

var (
	_ service.BlobStorage   = (*Storage)(nil)
	_ service.GCBlobStorage = (*Storage)(nil)
)

// NewClient builds an S3 client from config. Static credentials are used when
// present, otherwise the default AWS credential chain applies.
func NewClient(ctx context.Context, cfg config.S3, creds config.S3Credentials) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if creds.AccessKeyId != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyId, creds.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func New(client API, bucket, prefix string) *Storage {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *Storage) key(p string) (string, error) {
	cleaned, err := utils.CleanBlobPath(p)
	if err != nil {
		return "", err
	}
	return s.prefix + cleaned, nil
}

func (s *Storage) dirPrefix(dir string) (string, error) {
	k, err := s.key(dir)
	if err != nil {
		return "", err
	}
	return k + "/", nil
}

func (s *Storage) SaveFile(ctx context.Context, dir, originalFilename string, data io.Reader) (_ string, err error) {
	defer func() { metrics.BlobOperation(backendName, "save", err) }()

	cleanDir, err := utils.CleanBlobPath(dir)
	if err != nil {
		return "", err
	}
	p := path.Join(cleanDir, utils.BlobName(originalFilename, time.Now()))

	// The SDK needs a seekable body to sign the payload
	body, ok := data.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(data)
		if err != nil {
			return "", fmt.Errorf("failed to read file data: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + p),
		Body:   body,
	}
	if contentType := mime.TypeByExtension(path.Ext(p)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return p, nil
}

func (s *Storage) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	k, err := s.key(p)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, internal_errors.NotFound("File not found")
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

func (s *Storage) DeleteFile(ctx context.Context, p string) (err error) {
	defer func() { metrics.BlobOperation(backendName, "delete", err) }()

	k, err := s.key(p)
	if err != nil {
		return err
	}

	// DeleteObject succeeds for missing keys
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *Storage) DeleteDir(ctx context.Context, dir string) (err error) {
	defer func() { metrics.BlobOperation(backendName, "delete_dir", err) }()

	prefix, err := s.dirPrefix(dir)
	if err != nil {
		return err
	}
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return err
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if out != nil && len(out.Errors) > 0 {
			return fmt.Errorf("failed to delete %d objects, first: %s", len(out.Errors), aws.ToString(out.Errors[0].Key))
		}
	}
	return nil
}

// RenameDir copies every object to the new prefix and then removes the
// original. S3 has no atomic rename, so a failure midway leaves objects under
// both prefixes.
func (s *Storage) RenameDir(ctx context.Context, oldDir, newDir string) (err error) {
	defer func() { metrics.BlobOperation(backendName, "rename_dir", err) }()

	oldPrefix, err := s.dirPrefix(oldDir)
	if err != nil {
		return err
	}
	newPrefix, err := s.dirPrefix(newDir)
	if err != nil {
		return err
	}

	keys, err := s.listKeys(ctx, oldPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	existing, err := s.listKeys(ctx, newPrefix)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("destination directory %s already exists", newDir)
	}

	for _, k := range keys {
		target := newPrefix + strings.TrimPrefix(k, oldPrefix)
		if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.bucket),
			Key:        aws.String(target),
			CopySource: aws.String(copySource(s.bucket, k)),
		}); err != nil {
			return fmt.Errorf("failed to copy %s: %w", k, err)
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		}); err != nil {
			return fmt.Errorf("failed to delete %s after copy: %w", k, err)
		}
	}
	return nil
}

// Ping lists at most one key under the prefix, which needs both the bucket
// and list permission.
func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("bucket %s unavailable: %w", s.bucket, err)
	}
	return nil
}

func (s *Storage) WalkFiles(ctx context.Context, dir string) ([]string, error) {
	prefix, err := s.dirPrefix(dir)
	if err != nil {
		return nil, err
	}
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(keys))
	for _, k := range keys {
		files = append(files, strings.TrimPrefix(k, s.prefix))
	}
	return files, nil
}

func (s *Storage) GetFileModTime(ctx context.Context, p string) (time.Time, error) {
	k, err := s.key(p)
	if err != nil {
		return time.Time{}, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, internal_errors.NotFound("File not found")
		}
		return time.Time{}, fmt.Errorf("failed to head object: %w", err)
	}
	return aws.ToTime(out.LastModified), nil
}

func (s *Storage) listKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// copySource URL-encodes bucket/key segment by segment.
func copySource(bucket, key string) string {
	segments := strings.Split(bucket+"/"+key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
