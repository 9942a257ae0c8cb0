package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
}

// PageArchiver stores raw fetched pages so a batch can be replayed or
// inspected after the fact. Archive failures are logged by the caller and
// never fail the ingest.
type PageArchiver interface {
	ArchivePage(ctx context.Context, target string, runID int64, page int, body []byte) error
}

// S3Archiver writes raw pages to S3-compatible storage
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver creates a new S3 page archiver
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// PageKey builds the object key for a raw page archive.
// Layout: raw/{target}/{YYYY-MM-DD}/run-{id}/page-{n}.html
func PageKey(target string, runID int64, page int, at time.Time) string {
	return fmt.Sprintf("raw/%s/%s/run-%d/page-%d.html", target, at.UTC().Format("2006-01-02"), runID, page)
}

// ArchivePage uploads one raw page body under the run's key prefix
func (a *S3Archiver) ArchivePage(ctx context.Context, target string, runID int64, page int, body []byte) error {
	key := PageKey(target, runID, page, time.Now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
