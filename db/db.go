package db

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotConfigured = errors.New("no database configured")

// Open connects to MySQL when mysqlDSN is set, otherwise to the SQLite file.
func Open(mysqlDSN, sqliteFile string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case mysqlDSN != "":
		dialector = mysql.Open(mysqlDSN)
	case sqliteFile != "":
		dialector = sqlite.Open(sqliteFile)
	default:
		return nil, ErrNotConfigured
	}
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}
	log.Infof("Database opened (%s)", dialector.Name())
	return db, nil
}
