package storage

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

type Bucket struct {
	Name          string
	StorageType   StorageType
	Path          string // Path on a drive or a prefix in a S3 bucket
	Region        string
	Endpoint      string // Custom S3 endpoint (MinIO, Ceph, etc)
	AuthDetails   string // In case of S3 bucket - "key:secret"
	SSEEncryption string
	TmpDir        string
}

// NewBucket picks S3 when s3Bucket is set and the upload directory otherwise.
func NewBucket(uploadDir, tmpDir, s3Bucket, region, endpoint, prefix, key, secret string) *Bucket {
	if s3Bucket == "" {
		return &Bucket{Name: "disk", StorageType: StorageTypeFile, Path: uploadDir, TmpDir: tmpDir}
	}
	b := &Bucket{
		Name:        s3Bucket,
		StorageType: StorageTypeS3,
		Path:        strings.Trim(prefix, "/"),
		Region:      region,
		Endpoint:    endpoint,
		TmpDir:      tmpDir,
	}
	if key != "" {
		b.AuthDetails = key + ":" + secret
	}
	return b
}

func (b *Bucket) String() string {
	if b.StorageType == StorageTypeS3 {
		return fmt.Sprintf("s3://%s/%s", b.Name, b.Path)
	}
	return "file://" + b.Path
}

// GetRemotePath prefixes path with the bucket prefix, if any.
func (b *Bucket) GetRemotePath(path string) string {
	if b.Path == "" {
		return path
	}
	return b.Path + "/" + path
}

func (b *Bucket) CreateSVC() (*s3.S3, error) {
	config := aws.NewConfig()
	if b.Region != "" {
		config = config.WithRegion(b.Region)
	} else {
		config = config.WithRegion("us-east-1")
	}
	if b.Endpoint != "" {
		config = config.WithEndpoint(b.Endpoint).WithS3ForcePathStyle(true)
	}
	if key, secret, ok := strings.Cut(b.AuthDetails, ":"); ok {
		config = config.WithCredentials(credentials.NewStaticCredentials(key, secret, ""))
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}
