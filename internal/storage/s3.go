package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// s3PartSize is the minimum part size S3 accepts for every part but the last.
const s3PartSize = 5 << 20

// objectAPI is the subset of the S3 client used for uploads
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// S3Storage uploads photos to an S3-compatible bucket with path-style addressing
type S3Storage struct {
	client    objectAPI
	bucket    string
	endpoint  string
	publicURL string
	logger    *zap.Logger
}

// NewS3Storage builds an S3 client with static credentials
func NewS3Storage(endpoint, region, accessKey, secretKey, bucket, publicURL string, logger *zap.Logger) (*S3Storage, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, errors.New("s3 storage requires endpoint, credentials and bucket")
	}

	endpoint = strings.TrimRight(endpoint, "/")
	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return newS3Storage(client, endpoint, bucket, publicURL, logger), nil
}

func newS3Storage(client objectAPI, endpoint, bucket, publicURL string, logger *zap.Logger) *S3Storage {
	return &S3Storage{
		client:    client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Store streams r to the bucket holding at most one part in memory. Small
// files go up in a single PutObject; larger ones use a multipart upload that
// is aborted on failure, so no object appears until every part is accepted.
func (s *S3Storage) Store(ctx context.Context, r io.Reader, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	buf := make([]byte, s3PartSize)
	n, err := io.ReadFull(r, buf)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if err := s.put(ctx, key, buf[:n]); err != nil {
			return "", err
		}
		return s.FileURL(key), nil
	case err != nil:
		return "", fmt.Errorf("failed to read upload %s: %w", key, err)
	}

	if err := s.multipart(ctx, key, r, buf); err != nil {
		return "", err
	}
	return s.FileURL(key), nil
}

func (s *S3Storage) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// multipart uploads the already filled first part in buf, then the rest of r
func (s *S3Storage) multipart(ctx context.Context, key string, r io.Reader, buf []byte) error {
	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(http.DetectContentType(buf)),
	})
	if err != nil {
		return fmt.Errorf("s3 create multipart %s/%s: %w", s.bucket, key, err)
	}
	uploadID := created.UploadId

	abort := func(cause error) error {
		// The request context may already be cancelled; abort regardless.
		_, abortErr := s.client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(key),
			UploadId: uploadID,
		})
		if abortErr != nil {
			s.logger.Error("Failed to abort multipart upload",
				zap.String("key", key),
				zap.Error(abortErr),
			)
		}
		return cause
	}

	var parts []s3types.CompletedPart
	n := len(buf)
	for partNumber := int32(1); ; partNumber++ {
		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(partNumber),
			Body:          bytes.NewReader(buf[:n]),
			ContentLength: aws.Int64(int64(n)),
		})
		if err != nil {
			return abort(fmt.Errorf("s3 upload part %d of %s/%s: %w", partNumber, s.bucket, key, err))
		}
		parts = append(parts, s3types.CompletedPart{ETag: out.ETag, PartNumber: aws.Int32(partNumber)})

		n, err = io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return abort(fmt.Errorf("failed to read upload %s: %w", key, err))
		}
	}

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        uploadID,
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		return abort(fmt.Errorf("s3 complete multipart %s/%s: %w", s.bucket, key, err))
	}

	s.logger.Debug("Stored multipart upload", zap.String("key", key), zap.Int("parts", len(parts)))
	return nil
}

// FileURL returns the public URL for an object in the bucket.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (s *S3Storage) FileURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return s.endpoint + "/" + s.bucket + "/" + key
}
