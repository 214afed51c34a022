package s3bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type S3Bucket struct {
	client  objectAPI
	presign func(ctx context.Context, key string, ttl time.Duration) (string, error)
	bucket  string
	logger  *slog.Logger
}

// NewS3Bucket builds a bucket client. A non-empty endpoint switches to
// path-style addressing for MinIO and other S3-compatible stores.
func NewS3Bucket(cfg aws.Config, bucket string, endpoint string) *S3Bucket {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	presigner := s3.NewPresignClient(client)

	b := &S3Bucket{
		client: client,
		bucket: bucket,
		logger: slog.Default().With("module", "s3bucket"),
	}
	b.presign = func(ctx context.Context, key string, ttl time.Duration) (string, error) {
		req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(ttl))
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}
	return b
}

// ProgressFunc receives the number of bytes handed to the transport so far.
type ProgressFunc func(sent, total int64)

// Upload stores content under key. onProgress, if set, is called with
// monotonically increasing byte counts; the final call with sent == total
// happens only after the store has accepted the object.
func (bucket *S3Bucket) Upload(ctx context.Context, key string, mediaType string, content []byte, onProgress ProgressFunc) error {
	total := int64(len(content))
	body := newProgressReader(content, onProgress)

	_, err := bucket.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &bucket.bucket,
		Key:           &key,
		Body:          body,
		ContentType:   &mediaType,
		ContentLength: aws.Int64(total),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	body.finish()
	return nil
}

// PresignedURL returns a time-limited GET link for key.
func (bucket *S3Bucket) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := bucket.presign(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return url, nil
}

func (bucket *S3Bucket) Exists(ctx context.Context, key string) (bool, error) {
	_, err := bucket.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket.bucket,
		Key:    &key,
	})
	if err != nil {
		var responseError *awshttp.ResponseError
		if errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == 404 {
			bucket.logger.Debug("object does not exist", "key", key, "bucket", bucket.bucket)
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

func (bucket *S3Bucket) Download(ctx context.Context, key string) ([]byte, error) {
	output, err := bucket.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	defer output.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(output.Body); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// ListFiles returns every key under prefix.
func (bucket *S3Bucket) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: &bucket.bucket,
	}

	if prefix != "" {
		input.Prefix = &prefix
	}

	paginator := s3.NewListObjectsV2Paginator(bucket.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}

	return keys, nil
}

// progressReader counts bytes read by the SDK. The SDK may read the body
// more than once (checksums, retries) so only new high-water marks are
// reported, capped below total until finish is called.
type progressReader struct {
	r          *bytes.Reader
	total      int64
	reported   int64
	onProgress ProgressFunc
}

func newProgressReader(content []byte, onProgress ProgressFunc) *progressReader {
	return &progressReader{
		r:          bytes.NewReader(content),
		total:      int64(len(content)),
		onProgress: onProgress,
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		pos := p.total - int64(p.r.Len())
		if pos >= p.total {
			pos = p.total - 1
		}
		p.report(pos)
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	return p.r.Seek(offset, whence)
}

func (p *progressReader) finish() {
	p.report(p.total)
}

func (p *progressReader) report(pos int64) {
	if p.onProgress == nil || pos <= p.reported {
		return
	}
	p.reported = pos
	p.onProgress(pos, p.total)
}

var _ io.ReadSeeker = (*progressReader)(nil)
