package models

// ItemType maps the 4-character code embedded in barcodes to a display name.
// The mapping is operator-editable; removal is blocked while items carry the name.
type ItemType struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:10;uniqueIndex;not null"`
	Name string `gorm:"size:100;not null"`
}
