package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Attempt is one POST /upload that reached recognition.
type Attempt struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	CreatedAt     int64  `gorm:"index"`
	FileName      string `gorm:"type:varchar(300)"`
	ArchivePath   string `gorm:"type:varchar(500)"`
	Width         uint16
	Height        uint16
	Orientation   int
	DetectedFaces int
	Accepted      bool   `gorm:"not null;default:false"`
	Status        string `gorm:"type:varchar(1024)"` // Comma-separated task statuses, e.g. "archive:2,publish:0"
	Faces         []Face `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// GetPath returns where the prepared upload is archived, e.g. 2024/05/<id>.jpg
func (a *Attempt) GetPath() string {
	created := time.Unix(a.CreatedAt, 0).UTC()
	return created.Format("2006") + "/" + created.Format("01") + "/" + a.ID + ".jpg"
}

func (a *Attempt) UpdateWith(statusMap map[string]int) {
	result := []string{}
	for k, v := range statusMap {
		result = append(result, k+":"+strconv.Itoa(v))
	}
	sort.Strings(result)
	a.Status = strings.Join(result, ",")
}
