package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	objects    map[string][]byte
	uploads    map[string]map[int32][]byte
	aborted    []string
	failPart   int32
	nextUpload int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, uploads: map[string]map[int32][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	f.nextUpload++
	id := fmt.Sprintf("upload-%d", f.nextUpload)
	f.uploads[id] = map[int32][]byte{}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String(id)}, nil
}

func (f *fakeS3) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	n := aws.ToInt32(in.PartNumber)
	if f.failPart == n {
		return nil, errors.New("part rejected")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.uploads[aws.ToString(in.UploadId)][n] = data
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", n))}, nil
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	id := aws.ToString(in.UploadId)
	var buf bytes.Buffer
	for _, part := range in.MultipartUpload.Parts {
		buf.Write(f.uploads[id][aws.ToInt32(part.PartNumber)])
	}
	f.objects[aws.ToString(in.Key)] = buf.Bytes()
	delete(f.uploads, id)
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	id := aws.ToString(in.UploadId)
	f.aborted = append(f.aborted, id)
	delete(f.uploads, id)
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Storage_SmallFileUsesSinglePut(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, "http://localhost:9000", "photos", "", zap.NewNop())

	ref, err := s.Store(context.Background(), strings.NewReader("tiny"), "p1-abc.jpg")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/photos/p1-abc.jpg", ref)
	assert.Equal(t, []byte("tiny"), fake.objects["p1-abc.jpg"])
	assert.Zero(t, fake.nextUpload)
}

func TestS3Storage_LargeFileUsesMultipart(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, "http://localhost:9000", "photos", "https://cdn.example.com/", zap.NewNop())

	data := bytes.Repeat([]byte("a"), 2*s3PartSize+123)
	ref, err := s.Store(context.Background(), bytes.NewReader(data), "p1-abc.jpg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/p1-abc.jpg", ref)
	assert.Equal(t, data, fake.objects["p1-abc.jpg"])
	assert.Equal(t, 1, fake.nextUpload)
	assert.Empty(t, fake.aborted)
}

func TestS3Storage_ExactPartSizeCompletesWithOnePart(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, "http://localhost:9000", "photos", "", zap.NewNop())

	data := bytes.Repeat([]byte("b"), s3PartSize)
	_, err := s.Store(context.Background(), bytes.NewReader(data), "p1-exact.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, fake.objects["p1-exact.jpg"])
}

func TestS3Storage_FailedPartAbortsUpload(t *testing.T) {
	fake := newFakeS3()
	fake.failPart = 2
	s := newS3Storage(fake, "http://localhost:9000", "photos", "", zap.NewNop())

	data := bytes.Repeat([]byte("c"), 2*s3PartSize)
	_, err := s.Store(context.Background(), bytes.NewReader(data), "p1-abc.jpg")
	require.Error(t, err)

	assert.NotContains(t, fake.objects, "p1-abc.jpg")
	assert.Equal(t, []string{"upload-1"}, fake.aborted)
	assert.Empty(t, fake.uploads)
}

func TestS3Storage_FailedStreamAbortsUpload(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, "http://localhost:9000", "photos", "", zap.NewNop())

	boom := errors.New("client went away")
	r := &failingReader{data: bytes.Repeat([]byte("d"), s3PartSize+10), err: boom}
	_, err := s.Store(context.Background(), r, "p1-abc.jpg")
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, fake.objects, "p1-abc.jpg")
	assert.Len(t, fake.aborted, 1)
}

func TestS3Storage_RejectsInvalidKey(t *testing.T) {
	fake := newFakeS3()
	s := newS3Storage(fake, "http://localhost:9000", "photos", "", zap.NewNop())

	_, err := s.Store(context.Background(), strings.NewReader("x"), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Empty(t, fake.objects)
}

func TestNewS3Storage_RequiresSettings(t *testing.T) {
	_, err := NewS3Storage("", "us-east-1", "key", "secret", "photos", "", zap.NewNop())
	assert.Error(t, err)
}
