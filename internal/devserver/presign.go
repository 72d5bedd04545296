package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lumiforge/vidgallery/internal/config"
)

// UploadTarget is a one-shot destination for a direct byte transfer.
type UploadTarget struct {
	URL    string `json:"url"`
	Method string `json:"method"`
	Key    string `json:"key"`
}

// Presigner issues upload targets. origin is the scheme://host the request
// arrived on; implementations that point at external storage ignore it.
type Presigner interface {
	PresignUpload(ctx context.Context, origin, videoID, filename string) (*UploadTarget, error)
}

// LoopbackPresigner points the upload back at the dev server itself, which
// accepts raw PUTs under /uploads/.
type LoopbackPresigner struct{}

func (LoopbackPresigner) PresignUpload(ctx context.Context, origin, videoID, filename string) (*UploadTarget, error) {
	key := fmt.Sprintf("uploads/%s/%s", videoID, filename)
	return &UploadTarget{
		URL:    fmt.Sprintf("%s/%s", origin, key),
		Method: "PUT",
		Key:    key,
	}, nil
}

// S3Presigner issues real presigned PUT URLs against an S3-compatible store.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

func NewS3Presigner(ctx context.Context, cfg config.S3Config) (*S3Presigner, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 credentials and bucket must be set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		ttl:     cfg.PresignTTL,
	}, nil
}

func (p *S3Presigner) PresignUpload(ctx context.Context, origin, videoID, filename string) (*UploadTarget, error) {
	key := fmt.Sprintf("uploads/%s/%s", videoID, filename)

	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("video/mp4"),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = p.ttl
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &UploadTarget{URL: req.URL, Method: "PUT", Key: key}, nil
}
