package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for uploads.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Region   string
	Endpoint string // Optional custom endpoint (for MinIO, LocalStack, etc.)
	// PathStyle forces path-style addressing; implied by a custom endpoint.
	PathStyle bool
}

// S3 writes each payload to its bucket/key and acknowledges with the
// version id or ETag S3 returns.
type S3 struct {
	client S3API
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client), nil
}

func NewS3WithClient(client S3API) *S3 {
	return &S3{client: client}
}

func (s *S3) Send(ctx context.Context, destinationID string, payload []byte) (string, error) {
	p, err := decode(destinationID, payload)
	if err != nil {
		return "", err
	}

	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.Bucket),
		Key:         aws.String(p.Key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
		Metadata:    metadata(p.Tags),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s/%s failed: %w", p.Bucket, p.Key, err)
	}
	return s3Ack(out)
}

func s3Ack(out *s3.PutObjectOutput) (string, error) {
	if out == nil {
		return "", errors.New("s3 put returned no output")
	}
	if v := aws.ToString(out.VersionId); v != "" && v != "null" {
		return "s3-" + v, nil
	}
	if etag := strings.Trim(aws.ToString(out.ETag), `"`); etag != "" {
		return "s3-" + etag, nil
	}
	return "", errors.New("s3 put returned neither version id nor etag")
}
