package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"docrisk-backend/internal/shared/storage/object"
)

// objectAPI is the part of *s3.Client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store keeps uploaded documents in one bucket under an optional key prefix.
// Every object is written with server-side encryption.
type Store struct {
	api      objectAPI
	bucket   string
	prefix   string
	kmsKeyID string
}

// New loads the default AWS config for region and returns a bucket-backed store.
func New(ctx context.Context, region, bucket, prefix, kmsKeyID string) (*Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newWithClient(s3.NewFromConfig(cfg), bucket, prefix, kmsKeyID)
}

func newWithClient(api objectAPI, bucket, prefix, kmsKeyID string) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	return &Store{
		api:      api,
		bucket:   bucket,
		prefix:   strings.Trim(strings.TrimSpace(prefix), "/"),
		kmsKeyID: strings.TrimSpace(kmsKeyID),
	}, nil
}

// ObjectKey maps a storage key onto the bucket key under prefix.
func ObjectKey(prefix, storageKey string) string {
	prefix = strings.Trim(prefix, "/")
	storageKey = strings.TrimLeft(storageKey, "/")
	switch {
	case prefix == "":
		return storageKey
	case storageKey == "":
		return prefix
	}
	return prefix + "/" + storageKey
}

// Save uploads r under a fresh key in the hashed namespace.
func (s *Store) Save(ctx context.Context, namespace string, fileName string, r io.Reader) (object.Stored, error) {
	key, err := object.NewKey(namespace, fileName)
	if err != nil {
		return object.Stored{}, err
	}
	mimeType, body, err := object.Sniff(fileName, r)
	if err != nil {
		return object.Stored{}, err
	}
	size, err := s.SaveWithKey(ctx, key, mimeType, body)
	if err != nil {
		return object.Stored{}, err
	}
	return object.Stored{Key: key, SizeBytes: size, MimeType: mimeType}, nil
}

// SaveWithKey uploads r to storageKey.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := object.CheckKey(storageKey); err != nil {
		return 0, err
	}
	key := ObjectKey(s.prefix, storageKey)
	body := &countingReader{r: r}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	applySSE(input, s.kmsKeyID)
	if _, err := s.api.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("s3 put %s/%s: %w", s.bucket, key, err)
	}
	return body.n, nil
}

// Open streams the object at storageKey. A missing key maps to object.ErrNotFound.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := object.CheckKey(storageKey); err != nil {
		return nil, err
	}
	key := ObjectKey(s.prefix, storageKey)
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3 get %s: %w", key, object.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

// Delete removes the object. S3 reports missing keys as success.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := object.CheckKey(storageKey); err != nil {
		return err
	}
	key := ObjectKey(s.prefix, storageKey)
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func applySSE(input *s3.PutObjectInput, kmsKeyID string) {
	if kmsKeyID == "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
		return
	}
	input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
	input.SSEKMSKeyId = aws.String(kmsKeyID)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ object.ObjectStore = (*Store)(nil)
