package processing

import (
	"context"

	"idcheck/faces"
	"idcheck/models"
	"idcheck/utils"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// record inserts the attempt and its faces. Registered last so the row carries the other tasks' statuses.
type record struct {
	db *gorm.DB
}

func NewRecordTask(db *gorm.DB) Task {
	return &record{db: db}
}

func (t *record) Name() string {
	return "record"
}

func (t *record) ShouldHandle(upload *Upload) bool {
	return true
}

func (t *record) Process(ctx context.Context, upload *Upload) int {
	attempt := models.Attempt{
		ID:            upload.ID,
		CreatedAt:     upload.CreatedAt.Unix(),
		FileName:      upload.FileName,
		ArchivePath:   upload.ArchivePath,
		DetectedFaces: len(upload.Recognitions),
		Accepted:      upload.Accepted(),
	}
	if upload.Image != nil {
		size := upload.Image.Bounds().Size()
		attempt.Width = uint16(size.X)
		attempt.Height = uint16(size.Y)
		attempt.Orientation = upload.Image.Orientation
	}
	attempt.UpdateWith(upload.Statuses)
	for i, r := range upload.Recognitions {
		attempt.Faces = append(attempt.Faces, models.Face{
			Num:        i,
			Label:      r.Match.String(),
			Known:      r.Match.Known,
			Distance:   r.Match.ReportedDistance(),
			Descriptor: utils.Float32ArrayToByteArray(r.Embedding),
			Top:        r.Region[faces.IndexTop],
			Right:      r.Region[faces.IndexRight],
			Bottom:     r.Region[faces.IndexBottom],
			Left:       r.Region[faces.IndexLeft],
		})
	}
	if err := t.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		log.Errorf("Error saving attempt %s: %v", upload.ID, err)
		return FailedDB
	}
	return Done
}
