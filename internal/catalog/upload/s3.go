// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config holds the connection settings for the media bucket.
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string // optional, for S3-compatible stores
	AccessKey      string // optional, falls back to the default credential chain
	SecretKey      string
	ForcePathStyle bool
}

// S3Presigner signs PUT requests against an S3 (or S3-compatible) bucket.
type S3Presigner struct {
	client *s3.S3
	bucket string
}

// NewS3Presigner creates a session for the configured bucket.
func NewS3Presigner(config S3Config) (*S3Presigner, error) {
	awsConfig := &aws.Config{
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.ForcePathStyle),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}

	return &S3Presigner{client: s3.New(sess), bucket: config.Bucket}, nil
}

// PresignPut returns a URL the client can PUT the object to. The content type
// is part of the signature, so the upload must send the same header.
func (presigner *S3Presigner) PresignPut(context context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, _ := presigner.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(presigner.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	req.SetContext(context)

	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload url: %w", err)
	}
	return url, nil
}
