package models

const (
	StatusIn  = "IN"
	StatusOut = "OUT"
)

// Item is one physical unit, identified by its full 6-field barcode.
// Items are created either by batch creation or lazily on first scan.
type Item struct {
	ID            uint   `gorm:"primaryKey"`
	FullBarcode   string `gorm:"size:64;uniqueIndex;not null"`
	BatchBarcode  string `gorm:"size:64;index;not null"` // first 5 barcode fields
	ItemType      string `gorm:"size:100;not null"`
	Generation    string `gorm:"size:10;not null"`
	CreatedDate   string `gorm:"size:10;not null"` // DD.MM.YYYY
	CurrentStatus string `gorm:"size:3;index;not null;default:IN"`
}
