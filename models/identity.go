package models

import (
	"bytes"
	"context"
	"io"

	"idcheck/faces"

	"gorm.io/gorm"
)

// Identity is an enrollment image stored in the database (ENROLL_FROM_DB).
type Identity struct {
	ID        uint64 `gorm:"primaryKey"`
	CreatedAt int64
	Label     string `gorm:"type:varchar(300);uniqueIndex"`
	FileName  string `gorm:"type:varchar(300)"`
	Image     []byte `gorm:"type:longblob"`
	Disabled  bool   `gorm:"not null;default:false"`
}

// IdentitySource enrolls every enabled identity, ordered by ID. Images are loaded lazily.
type IdentitySource struct {
	DB *gorm.DB
}

func (s IdentitySource) Items(ctx context.Context) ([]faces.EnrollmentItem, error) {
	var identities []Identity
	err := s.DB.WithContext(ctx).
		Select("id", "label", "file_name").
		Where("disabled = ?", false).
		Order("id").
		Find(&identities).Error
	if err != nil {
		return nil, err
	}
	items := make([]faces.EnrollmentItem, 0, len(identities))
	for _, identity := range identities {
		id := identity.ID
		name := identity.FileName
		if name == "" {
			name = identity.Label
		}
		items = append(items, faces.EnrollmentItem{
			Label: identity.Label,
			Name:  "identity:" + name,
			Open: func() (io.ReadCloser, error) {
				var row Identity
				if err := s.DB.WithContext(ctx).Select("image").First(&row, id).Error; err != nil {
					return nil, err
				}
				return io.NopCloser(bytes.NewReader(row.Image)), nil
			},
		})
	}
	return items, nil
}
