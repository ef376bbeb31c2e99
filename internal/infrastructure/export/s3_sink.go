package export

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	app "github.com/jhoicas/concesionaria-api/internal/application/export"
	"github.com/jhoicas/concesionaria-api/pkg/config"
)

// S3API subconjunto del cliente S3 que usa el sink.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ app.Sink = (*S3Sink)(nil)

// S3Sink sube los respaldos a un bucket bajo prefix y conserva los keep más recientes.
type S3Sink struct {
	api    S3API
	bucket string
	prefix string
	keep   int
}

func NewS3Sink(api S3API, bucket, prefix string, keep int) *S3Sink {
	return &S3Sink{api: api, bucket: bucket, prefix: prefix, keep: keep}
}

// NewS3Client cliente S3; con endpoint propio (MinIO) usa path-style.
func NewS3Client(ctx context.Context, cfg config.BackupConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3Access != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3Access, cfg.S3Secret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", name, err)
	}
	return s.prune(ctx)
}

func (s *S3Sink) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}
	var keys []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + backupPrefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list: %w", err)
		}
		for _, o := range page.Contents {
			if k := aws.ToString(o.Key); strings.HasPrefix(k, s.prefix+backupPrefix) {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	for len(keys) > s.keep {
		if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket), Key: aws.String(keys[0]),
		}); err != nil {
			return fmt.Errorf("s3 delete %s: %w", keys[0], err)
		}
		keys = keys[1:]
	}
	return nil
}
