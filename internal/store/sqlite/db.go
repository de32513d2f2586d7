package sqlite

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (creating if needed) the SQLite database at path with foreign
// keys enforced. The pool is pinned to one connection since SQLite allows a
// single writer.
func Open(path string, autoMigrate bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withForeignKeys(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := configure(db, autoMigrate); err != nil {
		_ = Close(db)
		return nil, err
	}
	return db, nil
}

func configure(db *gorm.DB, autoMigrate bool) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if autoMigrate {
		if err := db.AutoMigrate(&clientRow{}, &professionalRow{}, &appointmentRow{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	}
	return nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withForeignKeys(path string) string {
	if strings.Contains(path, "_foreign_keys=") || strings.Contains(path, "_fk=") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}
