package storage

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	bucket   Bucket
	s3Client *s3.S3
}

func NewS3Storage(bucket *Bucket) (StorageAPI, error) {
	client, err := bucket.CreateSVC()
	if err != nil {
		return nil, fmt.Errorf("creating S3 client for %s: %w", bucket.String(), err)
	}
	return &S3Storage{bucket: *bucket, s3Client: client}, nil
}

func (s *S3Storage) GetSize(path string) int64 {
	out, err := s.s3Client.HeadObject(&s3.HeadObjectInput{
		Bucket: &s.bucket.Name,
		Key:    aws.String(s.bucket.GetRemotePath(path)),
	})
	if err != nil || out.ContentLength == nil {
		return -1
	}
	return *out.ContentLength
}

func (s *S3Storage) Save(path string, reader io.Reader) (int64, error) {
	counter := &countingReader{reader: reader}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	input := s3manager.UploadInput{
		Bucket:      &s.bucket.Name,
		Key:         aws.String(s.bucket.GetRemotePath(path)),
		ContentType: aws.String("image/jpeg"),
		Body:        counter,
	}
	if s.bucket.SSEEncryption != "" {
		input.ServerSideEncryption = &s.bucket.SSEEncryption
	}
	_, err := uploader.Upload(&input)
	return counter.n, err
}

func (s *S3Storage) Delete(path string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.bucket.Name,
		Key:    aws.String(s.bucket.GetRemotePath(path)),
	})
	return err
}

// GetFreeSpace reports the temp directory, the only local disk S3 storage uses.
func (s *S3Storage) GetFreeSpace() uint64 {
	return FreeSpace(s.bucket.TmpDir)
}

func (s *S3Storage) GetBucket() *Bucket {
	return &s.bucket
}

type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}
