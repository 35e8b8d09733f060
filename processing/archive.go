package processing

import (
	"bytes"
	"context"

	"idcheck/models"
	"idcheck/storage"

	log "github.com/sirupsen/logrus"
)

// archive stores the prepared image in the configured bucket.
type archive struct {
	storage storage.StorageAPI
}

func NewArchiveTask(s storage.StorageAPI) Task {
	return &archive{storage: s}
}

func (t *archive) Name() string {
	return "archive"
}

func (t *archive) ShouldHandle(upload *Upload) bool {
	return upload.Image != nil && len(upload.Image.JPEG) > 0
}

func (t *archive) Process(ctx context.Context, upload *Upload) int {
	attempt := models.Attempt{ID: upload.ID, CreatedAt: upload.CreatedAt.Unix()}
	path := attempt.GetPath()
	data := upload.Image.JPEG
	if _, err := t.storage.Save(path, bytes.NewReader(data)); err != nil {
		log.Errorf("Error archiving upload %s to %s: %v", upload.ID, t.storage.GetBucket().String(), err)
		t.discard(path)
		return FailedStorage
	}
	if size := t.storage.GetSize(path); size != int64(len(data)) {
		log.Errorf("Archived upload %s has %d bytes, expected %d", upload.ID, size, len(data))
		t.discard(path)
		return FailedStorage
	}
	upload.ArchivePath = path
	return Done
}

// discard removes a partially written archive.
func (t *archive) discard(path string) {
	if t.storage.GetSize(path) < 0 {
		return
	}
	if err := t.storage.Delete(path); err != nil {
		log.Warnf("Cannot remove partial archive %s: %v", path, err)
	}
}
