package models

import "time"

// LocationAssignment is an append-only log entry. An item's current location
// is the assignment with the highest timestamp; history is never edited.
type LocationAssignment struct {
	ID              uint     `gorm:"primaryKey"`
	ItemID          uint     `gorm:"index;not null"`
	Item            Item     `gorm:"constraint:OnDelete:CASCADE"`
	LocationBarcode string   `gorm:"size:64;index;not null"`
	Location        Location `gorm:"foreignKey:LocationBarcode;references:Barcode"`
	Timestamp       time.Time `gorm:"index;not null"`
}
