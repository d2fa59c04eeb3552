package models

import "time"

// ScanEvent is one row per check-in/check-out/move action. The log is
// append-only and keyed by barcode, so it outlives the item row itself
// (except under purge, which removes the purged items' events too).
type ScanEvent struct {
	ID          uint   `gorm:"primaryKey"`
	Barcode     string `gorm:"size:64;index;not null"`
	ItemType    string `gorm:"size:100;not null"`
	Generation  string `gorm:"size:10;not null"`
	CreatedDate string `gorm:"size:10;not null"`
	Status      string `gorm:"size:3;not null"`
	ScanTime    time.Time `gorm:"index;not null"`
}
