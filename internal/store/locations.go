package store

import (
	"errors"
	"fmt"

	"itemtrack/internal/barcode"
	"itemtrack/internal/models"

	"gorm.io/gorm"
)

// RegisterLocation adds a location under its normalized barcode.
func (s *Store) RegisterLocation(locationBarcode, name string) error {
	bc := barcode.Normalize(locationBarcode)
	if bc == "" || name == "" {
		return fmt.Errorf("%w: location barcode and name are required", ErrInvalidFormat)
	}
	return s.runInTransaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Location{Barcode: bc, Name: name}).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateLocation
			}
			return fmt.Errorf("register location: %w", err)
		}
		return nil
	})
}

// ListLocations returns the registry ordered by name.
func (s *Store) ListLocations() ([]models.Location, error) {
	var locations []models.Location
	if err := s.db.Order("name asc").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// RemoveLocation deletes a location, refusing while any assignment still
// references it — location history must keep resolving.
func (s *Store) RemoveLocation(locationBarcode string) error {
	bc := barcode.Normalize(locationBarcode)
	return s.runInTransaction(func(tx *gorm.DB) error {
		var loc models.Location
		if err := tx.Where("barcode = ?", bc).First(&loc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownLocation
			}
			return fmt.Errorf("look up location: %w", err)
		}

		var refs int64
		if err := tx.Model(&models.LocationAssignment{}).
			Where("location_barcode = ?", bc).Count(&refs).Error; err != nil {
			return fmt.Errorf("count assignments: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: %d assignments reference %s", ErrLocationInUse, refs, bc)
		}

		if err := tx.Delete(&loc).Error; err != nil {
			return fmt.Errorf("remove location: %w", err)
		}
		return nil
	})
}

// LocationName resolves a location barcode to its display name.
func (s *Store) LocationName(locationBarcode string) (string, error) {
	var loc models.Location
	err := s.db.Where("barcode = ?", barcode.Normalize(locationBarcode)).First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnknownLocation
		}
		return "", fmt.Errorf("look up location: %w", err)
	}
	return loc.Name, nil
}

// requireLocation fails with ErrUnknownLocation unless the barcode is registered.
func requireLocation(tx *gorm.DB, normalizedBarcode string) error {
	var count int64
	if err := tx.Model(&models.Location{}).
		Where("barcode = ?", normalizedBarcode).Count(&count).Error; err != nil {
		return fmt.Errorf("look up location: %w", err)
	}
	if count == 0 {
		return ErrUnknownLocation
	}
	return nil
}
