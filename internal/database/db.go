package database

import (
	"fmt"
	"log"
	"time"

	"itemtrack/internal/config"
	"itemtrack/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Seed mapping for a fresh database; the registry is operator-editable afterwards.
var initialItemCodes = map[string]string{
	"PIPI": "PioPino",
	"CHNU": "Chestnut",
	"KIOY": "KingOyster",
	"BLOY": "BlueOyster",
	"PIOY": "PinkOyster",
	"LIMA": "Lionsmane",
	"INVE": "Inventory",
	"STOR": "Storage",
	"MISC": "Miscellaneous",
}

func Init(cfg *config.Config) {
	db, err := Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("could not open tracking database: %v", err)
	}
	DB = db
}

// Open connects to the shared tracking file, migrates the schema and seeds
// the item-code registry when it is empty. WAL journaling keeps concurrent
// readers unblocked; busy_timeout is the in-engine wait before a writer
// reports SQLITE_BUSY to our retry layer.
func Open(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, int((15 * time.Second).Milliseconds()))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&models.ItemType{},
		&models.Location{},
		&models.Batch{},
		&models.Item{},
		&models.Note{},
		&models.LocationAssignment{},
		&models.ScanEvent{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if err := seedItemCodes(db); err != nil {
		return nil, err
	}

	return db, nil
}

func seedItemCodes(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ItemType{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count item codes: %w", err)
	}
	if count > 0 {
		return nil
	}
	for code, name := range initialItemCodes {
		if err := db.Create(&models.ItemType{Code: code, Name: name}).Error; err != nil {
			return fmt.Errorf("seed item code %s: %w", code, err)
		}
	}
	return nil
}
