package report

import (
	"errors"
	"fmt"

	"itemtrack/internal/barcode"
	"itemtrack/internal/models"

	"gorm.io/gorm"
)

// Query is the read-only aggregation layer over the store's data. It never
// mutates; current status and location always come from the latest committed
// rows at read time.
type Query struct {
	db *gorm.DB
}

func NewQuery(db *gorm.DB) *Query {
	return &Query{db: db}
}

// SummaryRow is one type+generation group of the live inventory.
type SummaryRow struct {
	ItemType   string
	Generation string
	Total      int
	InStock    int
	OutCount   int
}

// Filters narrow the detailed report. Zero values mean "no filter". The
// location filter takes the scanned location barcode and is resolved through
// the registry; an unresolved barcode yields zero rows, not an error.
type Filters struct {
	ItemType        string
	Generation      string
	LocationBarcode string
	CreatedDate     string // DD.MM.YYYY
}

// DetailRow is one item joined with its latest scan, its note ("" when
// absent) and its current location ("No location" when never assigned).
type DetailRow struct {
	FullBarcode   string
	ItemType      string
	Generation    string
	CreatedDate   string
	LatestScan    string // raw timestamp of the newest scan event, "" when none
	CurrentStatus string
	Note          string
	LocationName  string
}

// InventorySummary computes live totals per type+generation from the items table.
func (q *Query) InventorySummary() ([]SummaryRow, error) {
	var rows []SummaryRow
	err := q.db.Raw(`
		SELECT
			item_type,
			generation,
			COUNT(*) AS total,
			SUM(CASE WHEN current_status = ? THEN 1 ELSE 0 END) AS in_stock,
			SUM(CASE WHEN current_status = ? THEN 1 ELSE 0 END) AS out_count
		FROM items
		GROUP BY item_type, generation
		ORDER BY item_type, generation`,
		models.StatusIn, models.StatusOut,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("inventory summary: %w", err)
	}
	return rows, nil
}

// DetailedReport returns one row per item with its latest scan time, note
// and derived current location (newest assignment wins).
func (q *Query) DetailedReport(f Filters) ([]DetailRow, error) {
	query := `
		SELECT
			i.full_barcode   AS full_barcode,
			i.item_type      AS item_type,
			i.generation     AS generation,
			i.created_date   AS created_date,
			COALESCE((SELECT MAX(s.scan_time) FROM scan_events s WHERE s.barcode = i.full_barcode), '') AS latest_scan,
			i.current_status AS current_status,
			COALESCE(n.text, '')             AS note,
			COALESCE(loc.name, 'No location') AS location_name
		FROM items i
		LEFT JOIN notes n ON n.item_id = i.id
		LEFT JOIN (
			SELECT la.item_id AS item_id, l.name AS name
			FROM location_assignments la
			JOIN locations l ON la.location_barcode = l.barcode
			WHERE la.timestamp = (
				SELECT MAX(timestamp) FROM location_assignments WHERE item_id = la.item_id
			)
		) loc ON loc.item_id = i.id`

	var conditions []string
	var params []interface{}

	if f.ItemType != "" {
		conditions = append(conditions, "i.item_type = ?")
		params = append(params, f.ItemType)
	}
	if f.Generation != "" {
		conditions = append(conditions, "i.generation = ?")
		params = append(params, f.Generation)
	}
	if f.LocationBarcode != "" {
		name, err := q.resolveLocationName(f.LocationBarcode)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "loc.name = ?")
		params = append(params, name)
	}
	if f.CreatedDate != "" {
		conditions = append(conditions, "i.created_date = ?")
		params = append(params, f.CreatedDate)
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY i.full_barcode"

	var rows []DetailRow
	if err := q.db.Raw(query, params...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("detailed report: %w", err)
	}
	return rows, nil
}

// resolveLocationName maps a location barcode to its registered name. An
// unregistered barcode falls through as the normalized barcode itself, which
// matches no location name and so filters every row out.
func (q *Query) resolveLocationName(locationBarcode string) (string, error) {
	bc := barcode.Normalize(locationBarcode)
	var loc models.Location
	err := q.db.Where("barcode = ?", bc).First(&loc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bc, nil
		}
		return "", fmt.Errorf("resolve location filter: %w", err)
	}
	return loc.Name, nil
}
