package store

import (
	"errors"
	"fmt"

	"itemtrack/internal/barcode"
	"itemtrack/internal/models"

	"gorm.io/gorm"
)

// ResolveTypeCode maps a barcode type code to its registered display name.
// Unregistered codes resolve to the Unknown sentinel; scanning never
// hard-fails on a code the registry has not seen.
func (s *Store) ResolveTypeCode(code string) string {
	var itemType models.ItemType
	if err := s.db.Where("code = ?", barcode.Normalize(code)).First(&itemType).Error; err != nil {
		return barcode.UnknownType
	}
	return itemType.Name
}

// UpsertItemType adds a code→name mapping or renames an existing one.
func (s *Store) UpsertItemType(code, name string) error {
	code = barcode.Normalize(code)
	if !barcode.IsAlphanumeric(code) || name == "" {
		return fmt.Errorf("%w: item code must be alphanumeric and name non-empty", ErrInvalidFormat)
	}
	return s.runInTransaction(func(tx *gorm.DB) error {
		var existing models.ItemType
		err := tx.Where("code = ?", code).First(&existing).Error
		switch {
		case err == nil:
			existing.Name = name
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update item code: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.ItemType{Code: code, Name: name}).Error; err != nil {
				return fmt.Errorf("create item code: %w", err)
			}
		default:
			return fmt.Errorf("look up item code: %w", err)
		}
		return nil
	})
}

// ListItemTypes returns the registry ordered by code.
func (s *Store) ListItemTypes() ([]models.ItemType, error) {
	var types []models.ItemType
	if err := s.db.Order("code asc").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("list item codes: %w", err)
	}
	return types, nil
}

// RemoveItemType deletes a mapping, refusing while any item still carries
// the mapped display name.
func (s *Store) RemoveItemType(code string) error {
	code = barcode.Normalize(code)
	return s.runInTransaction(func(tx *gorm.DB) error {
		var itemType models.ItemType
		if err := tx.Where("code = ?", code).First(&itemType).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownItemType
			}
			return fmt.Errorf("look up item code: %w", err)
		}

		var refs int64
		if err := tx.Model(&models.Item{}).
			Where("item_type = ?", itemType.Name).Count(&refs).Error; err != nil {
			return fmt.Errorf("count items: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %d items of type %s", ErrItemTypeInUse, refs, itemType.Name)
		}

		if err := tx.Delete(&itemType).Error; err != nil {
			return fmt.Errorf("remove item code: %w", err)
		}
		return nil
	})
}
