package models

// Face is one detected face of an attempt, in detection order.
type Face struct {
	ID         uint64 `gorm:"primaryKey"`
	AttemptID  string `gorm:"type:varchar(36);index"`
	Num        int
	Label      string `gorm:"type:varchar(300)"`
	Known      bool
	Distance   float64
	Descriptor []byte `gorm:"type:blob"`
	Top        int
	Right      int
	Bottom     int
	Left       int
}
