package models

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Init(db *gorm.DB) error {
	for _, model := range []interface{}{&Identity{}, &Attempt{}, &Face{}} {
		if err := db.AutoMigrate(model); err != nil {
			log.Errorf("Auto-migrate error: %v", err)
			return err
		}
	}
	return nil
}
