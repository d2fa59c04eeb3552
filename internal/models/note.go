package models

// Note is a free-text annotation, at most one per item (upsert semantics).
type Note struct {
	ID     uint   `gorm:"primaryKey"`
	ItemID uint   `gorm:"uniqueIndex;not null"`
	Item   Item   `gorm:"constraint:OnDelete:CASCADE"`
	Text   string `gorm:"size:255"`
}
