package store

import (
	"fmt"
	"strconv"
	"strings"

	"itemtrack/internal/barcode"
	"itemtrack/internal/models"

	"gorm.io/gorm"
)

// nextSequence returns the next free item-sequence number: one past the
// highest numeric suffix of any existing 6-field barcode, across all
// batches, so suffixes never collide between batches. Must be called inside
// the batch-creation transaction, otherwise two concurrent creators could
// allocate overlapping ranges.
func nextSequence(tx *gorm.DB) (int, error) {
	var barcodes []string
	if err := tx.Model(&models.Item{}).Pluck("full_barcode", &barcodes).Error; err != nil {
		return 0, fmt.Errorf("scan item barcodes: %w", err)
	}

	max := 0
	for _, bc := range barcodes {
		parts := strings.Split(bc, barcode.Delimiter)
		if len(parts) != 6 {
			continue
		}
		n, err := strconv.Atoi(parts[5])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}
