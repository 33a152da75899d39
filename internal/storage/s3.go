package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "bucketfs/internal/config"
)

type uploader interface {
	UploadObject(ctx context.Context, input *transfermanager.UploadObjectInput, optFns ...func(*transfermanager.Options)) (*transfermanager.UploadObjectOutput, error)
}

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type listObjectsV2Paginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type awsListObjectsV2Paginator struct {
	inner *s3.ListObjectsV2Paginator
}

func (p *awsListObjectsV2Paginator) HasMorePages() bool {
	if p.inner == nil {
		return false
	}
	return p.inner.HasMorePages()
}

func (p *awsListObjectsV2Paginator) NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if p.inner == nil {
		return nil, errors.New("s3 paginator is not configured")
	}
	return p.inner.NextPage(ctx, optFns...)
}

// S3Bucket implements Bucket on aws-sdk-go-v2, covering AWS S3 and
// S3-compatible endpoints.
type S3Bucket struct {
	api      s3API
	uploader uploader
	bucket   string
	zone     string

	opTimeout       time.Duration
	listPageTimeout time.Duration

	newListObjectsV2Paginator func(client s3.ListObjectsV2APIClient, input *s3.ListObjectsV2Input) listObjectsV2Paginator
}

// NewS3Bucket builds an S3-backed Bucket from application config.
// Explicit credentials take priority; otherwise the default AWS chain
// applies. A non-empty endpoint switches the client to path-style
// addressing for S3-compatible services.
func NewS3Bucket(ctx context.Context, cfg *appconfig.Config) (*S3Bucket, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Zone == "" {
		return nil, errors.New("s3 zone is required")
	}
	if cfg.Endpoint != "" {
		parsed, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("s3 endpoint must be a valid http(s) URL: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return nil, errors.New("s3 endpoint must use http or https")
		}
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Zone),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Bucket{
		api:      client,
		uploader: transfermanager.New(client),
		bucket:   cfg.Bucket,
		zone:     cfg.Zone,
		newListObjectsV2Paginator: func(c s3.ListObjectsV2APIClient, input *s3.ListObjectsV2Input) listObjectsV2Paginator {
			return &awsListObjectsV2Paginator{inner: s3.NewListObjectsV2Paginator(c, input)}
		},
	}, nil
}

func (b *S3Bucket) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.opTimeout)
}

func (b *S3Bucket) Put(ctx context.Context, key string, data []byte) error {
	if b.uploader == nil {
		return errors.New("s3 uploader is not configured")
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()

	_, err := b.uploader.UploadObject(ctx, &transfermanager.UploadObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (b *S3Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	if b.api == nil {
		return nil, errors.New("s3 api client is not configured")
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()

	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

func (b *S3Bucket) Delete(ctx context.Context, key string) error {
	if b.api == nil {
		return errors.New("s3 api client is not configured")
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()

	// S3 deletes are idempotent; a missing key is already a success.
	if _, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isS3NotFound(err) {
			return nil
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (b *S3Bucket) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if b.api == nil {
		return ObjectInfo{}, errors.New("s3 api client is not configured")
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()

	out, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("head object: %w", err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (b *S3Bucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if b.api == nil {
		return nil, errors.New("s3 api client is not configured")
	}
	if b.newListObjectsV2Paginator == nil {
		return nil, errors.New("s3 paginator factory is not configured")
	}

	paginator := b.newListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	if paginator == nil {
		return nil, errors.New("s3 paginator is not configured")
	}

	var infos []ObjectInfo
	for paginator.HasMorePages() {
		page, err := b.listPage(ctx, paginator)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			infos = append(infos, ObjectInfo{
				Key:          *obj.Key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (b *S3Bucket) listPage(ctx context.Context, paginator listObjectsV2Paginator) (*s3.ListObjectsV2Output, error) {
	if b.listPageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.listPageTimeout)
		defer cancel()
	}
	return paginator.NextPage(ctx)
}

// Ensure creates the bucket when the existence probe reports it
// missing. Probe failures other than not-found surface to the caller.
func (b *S3Bucket) Ensure(ctx context.Context) error {
	if b.api == nil {
		return errors.New("s3 api client is not configured")
	}
	ctx, cancel := b.opContext(ctx)
	defer cancel()

	_, err := b.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err == nil {
		return nil
	}
	if !isS3NotFound(err) {
		return fmt.Errorf("head bucket: %w", err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(b.bucket)}
	if b.zone != "" && b.zone != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.zone),
		}
	}
	if _, err := b.api.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var noSuchBucket *types.NoSuchBucket
	return errors.As(err, &noSuchBucket)
}
