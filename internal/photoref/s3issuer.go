package photoref

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GetPresigner is the subset of the S3 presign client the issuer requires.
type GetPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Issuer issues read-only presigned URLs for stored photos.
type S3Issuer struct {
	presigner GetPresigner
	ttl       time.Duration
}

func NewS3Issuer(client *s3.Client, ttl time.Duration) *S3Issuer {
	return &S3Issuer{presigner: s3.NewPresignClient(client), ttl: ttl}
}

// NewS3IssuerWithPresigner is the injectable variant used by tests.
func NewS3IssuerWithPresigner(p GetPresigner, ttl time.Duration) *S3Issuer {
	return &S3Issuer{presigner: p, ttl: ttl}
}

func (i *S3Issuer) DisplayURL(ctx context.Context, bucket, path string) (string, error) {
	req, err := i.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	}, func(o *s3.PresignOptions) { o.Expires = i.ttl })
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", path, err)
	}
	return req.URL, nil
}
