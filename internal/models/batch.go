package models

import "time"

// Batch records the act of producing N items at once. Immutable once created;
// the individual items carry their own status from then on.
type Batch struct {
	ID           uint   `gorm:"primaryKey"`
	BatchBarcode string `gorm:"size:64;index;not null"`
	ItemType     string `gorm:"size:100;not null"`
	Generation   string `gorm:"size:10;not null"`
	CreatedDate  string `gorm:"size:10;not null"`
	Quantity     int    `gorm:"not null"`
	Status       string `gorm:"size:10;not null;default:CREATED"`
	CreatedAt    time.Time
}
