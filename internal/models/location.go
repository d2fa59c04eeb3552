package models

// Location is a registered physical place (shelf, grow tent, fridge).
// Barcode is stored normalized to upper-case alphanumeric.
type Location struct {
	ID      uint   `gorm:"primaryKey"`
	Barcode string `gorm:"size:64;uniqueIndex;not null"`
	Name    string `gorm:"size:100;not null"`
}
