package storage

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// StorageAPI is where prepared uploads are archived.
type StorageAPI interface {
	// GetSize returns -1 for a missing object.
	GetSize(path string) int64
	Save(path string, reader io.Reader) (int64, error)
	Delete(path string) error
	GetFreeSpace() uint64
	GetBucket() *Bucket
}

// StorageFrom creates the storage backend for bucket.
func StorageFrom(bucket *Bucket) (StorageAPI, error) {
	log.Infof("Storage bucket: %s", bucket.String())
	if bucket.StorageType == StorageTypeS3 {
		return NewS3Storage(bucket)
	}
	return NewDiskStorage(bucket), nil
}
