package store

import (
	"errors"
	"fmt"
	"time"

	"itemtrack/internal/barcode"
	"itemtrack/internal/models"

	"gorm.io/gorm"
)

// NoLocation is the sentinel for items that have never been assigned anywhere.
const NoLocation = "No location"

// purgeConfirmToken is what the caller's confirmation must normalize to.
const purgeConfirmToken = "DELETEALL"

// BatchResult describes the contiguous range allocated by CreateBatch.
type BatchResult struct {
	BatchBarcode  string
	Quantity      int
	FirstSequence int
	LastSequence  int
	FirstBarcode  string
	LastBarcode   string
}

// ensureItem is the single idempotent-creation primitive every status,
// location and note operation goes through. If the full barcode is already
// known the existing row is returned untouched; otherwise the item is
// inserted with status IN and its batch barcode derived from the first
// 5 fields. A unique violation from a racing creator is success: the payload
// is derived deterministically from the barcode itself.
func ensureItem(tx *gorm.DB, d *barcode.Decoded) (models.Item, error) {
	var item models.Item
	err := tx.Where("full_barcode = ?", d.FullBarcode).First(&item).Error
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("look up item: %w", err)
	}

	item = models.Item{
		FullBarcode:   d.FullBarcode,
		BatchBarcode:  barcode.BatchPrefix(d.FullBarcode),
		ItemType:      d.ItemType,
		Generation:    d.Generation,
		CreatedDate:   d.CreatedDate,
		CurrentStatus: models.StatusIn,
	}
	if err := tx.Create(&item).Error; err != nil {
		if isUniqueViolation(err) {
			if err := tx.Where("full_barcode = ?", d.FullBarcode).First(&item).Error; err != nil {
				return item, fmt.Errorf("re-read raced item: %w", err)
			}
			return item, nil
		}
		return item, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// EnsureItemExists materializes the item for a decoded barcode if it has
// never been seen. Idempotent; never duplicates, never overwrites.
func (s *Store) EnsureItemExists(d *barcode.Decoded) error {
	return s.runInTransaction(func(tx *gorm.DB) error {
		_, err := ensureItem(tx, d)
		return err
	})
}

// CheckIn marks an item as in stock and logs the scan.
func (s *Store) CheckIn(d *barcode.Decoded) error {
	return s.setStatus(d, models.StatusIn)
}

// CheckOut marks an item as out and logs the scan.
func (s *Store) CheckOut(d *barcode.Decoded) error {
	return s.setStatus(d, models.StatusOut)
}

func (s *Store) setStatus(d *barcode.Decoded, status string) error {
	return s.runInTransaction(func(tx *gorm.DB) error {
		item, err := ensureItem(tx, d)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).
			Update("current_status", status).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return appendScan(tx, d, status)
	})
}

// MoveTo appends a location assignment for the item at the registered
// location. An OUT item arriving somewhere is implicitly back in stock, so
// the move always leaves the item IN and logs an IN scan.
func (s *Store) MoveTo(d *barcode.Decoded, locationBarcode string) error {
	loc := barcode.Normalize(locationBarcode)
	return s.runInTransaction(func(tx *gorm.DB) error {
		if err := requireLocation(tx, loc); err != nil {
			return err
		}
		item, err := ensureItem(tx, d)
		if err != nil {
			return err
		}
		if item.CurrentStatus == models.StatusOut {
			if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).
				Update("current_status", models.StatusIn).Error; err != nil {
				return fmt.Errorf("update status: %w", err)
			}
		}
		if err := appendAssignment(tx, item.ID, loc); err != nil {
			return err
		}
		return appendScan(tx, d, models.StatusIn)
	})
}

// AssignLocation appends a location assignment without touching status or
// the scan log. Check-in sessions use it right after CheckIn, which already
// logged the scan.
func (s *Store) AssignLocation(d *barcode.Decoded, locationBarcode string) error {
	loc := barcode.Normalize(locationBarcode)
	return s.runInTransaction(func(tx *gorm.DB) error {
		if err := requireLocation(tx, loc); err != nil {
			return err
		}
		item, err := ensureItem(tx, d)
		if err != nil {
			return err
		}
		return appendAssignment(tx, item.ID, loc)
	})
}

// CreateBatch allocates a contiguous sequence range and inserts the batch
// record, its items (status IN), one location assignment and one IN scan
// per item — all in one transaction, so a crash mid-batch leaves no partial
// batch visible.
func (s *Store) CreateBatch(d *barcode.Decoded, quantity int, locationBarcode string) (*BatchResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	batchBase := barcode.BatchPrefix(d.FullBarcode)
	loc := barcode.Normalize(locationBarcode)

	var res *BatchResult
	err := s.runInTransaction(func(tx *gorm.DB) error {
		if err := requireLocation(tx, loc); err != nil {
			return err
		}
		start, err := nextSequence(tx)
		if err != nil {
			return err
		}

		b := models.Batch{
			BatchBarcode: batchBase,
			ItemType:     d.ItemType,
			Generation:   d.Generation,
			CreatedDate:  d.CreatedDate,
			Quantity:     quantity,
			Status:       "CREATED",
		}
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("create batch record: %w", err)
		}

		now := time.Now()
		for i := start; i < start+quantity; i++ {
			full := fmt.Sprintf("%s%s%04d", batchBase, barcode.Delimiter, i)
			item := models.Item{
				FullBarcode:   full,
				BatchBarcode:  batchBase,
				ItemType:      d.ItemType,
				Generation:    d.Generation,
				CreatedDate:   d.CreatedDate,
				CurrentStatus: models.StatusIn,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("create item %s: %w", full, err)
			}
			if err := appendAssignment(tx, item.ID, loc); err != nil {
				return err
			}
			if err := tx.Create(&models.ScanEvent{
				Barcode:     full,
				ItemType:    d.ItemType,
				Generation:  d.Generation,
				CreatedDate: d.CreatedDate,
				Status:      models.StatusIn,
				ScanTime:    now,
			}).Error; err != nil {
				return fmt.Errorf("log scan for %s: %w", full, err)
			}
		}

		res = &BatchResult{
			BatchBarcode:  batchBase,
			Quantity:      quantity,
			FirstSequence: start,
			LastSequence:  start + quantity - 1,
			FirstBarcode:  fmt.Sprintf("%s%s%04d", batchBase, barcode.Delimiter, start),
			LastBarcode:   fmt.Sprintf("%s%s%04d", batchBase, barcode.Delimiter, start+quantity-1),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SetNote attaches or replaces the note on an existing item. Notes never
// auto-create items.
func (s *Store) SetNote(fullBarcode, text string) error {
	return s.runInTransaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.Where("full_barcode = ?", fullBarcode).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("look up item: %w", err)
		}

		var note models.Note
		err := tx.Where("item_id = ?", item.ID).First(&note).Error
		switch {
		case err == nil:
			note.Text = text
			if err := tx.Save(&note).Error; err != nil {
				return fmt.Errorf("update note: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Note{ItemID: item.ID, Text: text}).Error; err != nil {
				return fmt.Errorf("create note: %w", err)
			}
		default:
			return fmt.Errorf("look up note: %w", err)
		}
		return nil
	})
}

// GetNote returns the item's note, or "" when it has none or the item is unknown.
func (s *Store) GetNote(fullBarcode string) (string, error) {
	var text string
	err := s.db.Model(&models.Note{}).
		Select("notes.text").
		Joins("JOIN items ON items.id = notes.item_id").
		Where("items.full_barcode = ?", fullBarcode).
		Limit(1).
		Scan(&text).Error
	if err != nil {
		return "", fmt.Errorf("look up note: %w", err)
	}
	return text, nil
}

// ItemStatus returns the item's current status.
func (s *Store) ItemStatus(fullBarcode string) (string, error) {
	var item models.Item
	if err := s.db.Where("full_barcode = ?", fullBarcode).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrItemNotFound
		}
		return "", fmt.Errorf("look up item: %w", err)
	}
	return item.CurrentStatus, nil
}

// CurrentLocation derives the item's location from the newest assignment.
// It is always recomputed from the log, never cached.
func (s *Store) CurrentLocation(fullBarcode string) (string, error) {
	var name string
	err := s.db.Model(&models.LocationAssignment{}).
		Select("locations.name").
		Joins("JOIN items ON items.id = location_assignments.item_id").
		Joins("JOIN locations ON locations.barcode = location_assignments.location_barcode").
		Where("items.full_barcode = ?", fullBarcode).
		Order("location_assignments.timestamp DESC").
		Limit(1).
		Scan(&name).Error
	if err != nil {
		return "", fmt.Errorf("look up location: %w", err)
	}
	if name == "" {
		return NoLocation, nil
	}
	return name, nil
}

// PurgeOutItems deletes every OUT item together with its notes, location
// history and scan history, in one transaction. The caller must supply a
// confirmation that normalizes to DELETEALL. Returns the number of items
// removed; zero is not an error.
func (s *Store) PurgeOutItems(confirm string) (int64, error) {
	if barcode.Normalize(confirm) != purgeConfirmToken {
		return 0, ErrNotConfirmed
	}

	var purged int64
	err := s.runInTransaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Item{}).
			Where("current_status = ?", models.StatusOut).Count(&count).Error; err != nil {
			return fmt.Errorf("count OUT items: %w", err)
		}
		if count == 0 {
			purged = 0
			return nil
		}

		outIDs := tx.Model(&models.Item{}).Select("id").Where("current_status = ?", models.StatusOut)
		outBarcodes := tx.Model(&models.Item{}).Select("full_barcode").Where("current_status = ?", models.StatusOut)

		if err := tx.Where("item_id IN (?)", outIDs).Delete(&models.Note{}).Error; err != nil {
			return fmt.Errorf("purge notes: %w", err)
		}
		if err := tx.Where("item_id IN (?)", outIDs).Delete(&models.LocationAssignment{}).Error; err != nil {
			return fmt.Errorf("purge location history: %w", err)
		}
		if err := tx.Where("barcode IN (?)", outBarcodes).Delete(&models.ScanEvent{}).Error; err != nil {
			return fmt.Errorf("purge scan history: %w", err)
		}
		if err := tx.Where("current_status = ?", models.StatusOut).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("purge items: %w", err)
		}
		purged = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

func appendScan(tx *gorm.DB, d *barcode.Decoded, status string) error {
	if err := tx.Create(&models.ScanEvent{
		Barcode:     d.FullBarcode,
		ItemType:    d.ItemType,
		Generation:  d.Generation,
		CreatedDate: d.CreatedDate,
		Status:      status,
		ScanTime:    time.Now(),
	}).Error; err != nil {
		return fmt.Errorf("log scan: %w", err)
	}
	return nil
}

func appendAssignment(tx *gorm.DB, itemID uint, locationBarcode string) error {
	if err := tx.Create(&models.LocationAssignment{
		ItemID:          itemID,
		LocationBarcode: locationBarcode,
		Timestamp:       time.Now(),
	}).Error; err != nil {
		return fmt.Errorf("append location assignment: %w", err)
	}
	return nil
}
