package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"itemtrack/internal/barcode"
	"itemtrack/internal/models"
	"itemtrack/internal/report"
	"itemtrack/internal/store"

	"github.com/sirupsen/logrus"
)

// Session drives the store and report layers in interactive loops. All
// invariants live below it; this layer only prompts, dispatches and renders.
type Session struct {
	store *store.Store
	query *report.Query
	in    *bufio.Scanner
	out   io.Writer
	log   *logrus.Logger
}

func New(st *store.Store, q *report.Query, in io.Reader, out io.Writer, log *logrus.Logger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		store: st,
		query: q,
		in:    bufio.NewScanner(in),
		out:   out,
		log:   log,
	}
}

// Run shows the main menu until the operator exits or input ends.
func (s *Session) Run() {
	for {
		fmt.Fprintln(s.out, "\n==============================")
		fmt.Fprintln(s.out, "ITEM TRACKING SYSTEM")
		fmt.Fprintln(s.out, "==============================")
		fmt.Fprintln(s.out, "1: Check in item (IN)")
		fmt.Fprintln(s.out, "2: Check out item (OUT)")
		fmt.Fprintln(s.out, "3: Move item")
		fmt.Fprintln(s.out, "4: Manage locations")
		fmt.Fprintln(s.out, "5: Show detailed report")
		fmt.Fprintln(s.out, "6: Add/edit note")
		fmt.Fprintln(s.out, "7: Create new batch")
		fmt.Fprintln(s.out, "8: Delete all OUT items")
		fmt.Fprintln(s.out, "9: Manage item codes")
		fmt.Fprintln(s.out, "0: Exit")

		choice, ok := s.prompt("Select: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			s.scanSession(models.StatusIn)
		case "2":
			s.scanSession(models.StatusOut)
		case "3":
			s.moveSession()
		case "4":
			s.locationsMenu()
		case "5":
			s.reportSession()
		case "6":
			s.noteSession()
		case "7":
			s.batchSession()
		case "8":
			s.purgeSession()
		case "9":
			s.itemCodesMenu()
		case "0":
			fmt.Fprintln(s.out, "Exiting system...")
			return
		default:
			fmt.Fprintln(s.out, "Invalid selection!")
		}
	}
}

func (s *Session) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// promptLocation reads a location barcode and rejects anything shaped like
// an item barcode. Returns the raw input; "" means abort.
func (s *Session) promptLocation(label string) string {
	loc, ok := s.prompt(label)
	if !ok || loc == "" {
		return ""
	}
	if barcode.LooksLikeIdentifier(loc) {
		fmt.Fprintln(s.out, "Error: Scanned barcode appears to be an ITEM barcode.")
		fmt.Fprintln(s.out, "Please scan a LOCATION barcode instead.")
		return ""
	}
	if _, err := s.store.LocationName(loc); err != nil {
		fmt.Fprintln(s.out, "Location not registered! Please register first.")
		return ""
	}
	return loc
}

func (s *Session) scanSession(status string) {
	mode := "CHECK IN"
	if status == models.StatusOut {
		mode = "CHECK OUT"
	}
	fmt.Fprintf(s.out, "\n%s MODE - Scan items (type 'finish' to exit)\n", mode)

	// Check-in needs a target shelf; check-out only records departure.
	locationBarcode := ""
	if status == models.StatusIn {
		locationBarcode = s.promptLocation("\nScan location barcode: ")
		if locationBarcode == "" {
			return
		}
	}

	for {
		raw, ok := s.prompt("\nScan item barcode: ")
		if !ok || strings.EqualFold(raw, "finish") {
			return
		}
		if raw == "" {
			continue
		}

		decoded, err := s.store.Decode(raw, false)
		if err != nil {
			fmt.Fprintln(s.out, "Invalid barcode! Expected format: XXXX_DD_MM_YY_GX_XXXX")
			continue
		}

		if status == models.StatusIn {
			err = s.store.CheckIn(decoded)
		} else {
			err = s.store.CheckOut(decoded)
		}
		if !s.reportError(err) {
			continue
		}
		if locationBarcode != "" {
			if !s.reportError(s.store.AssignLocation(decoded, locationBarcode)) {
				continue
			}
		}

		s.showLastScan(decoded, status)
		s.printInventory()
	}
}

func (s *Session) moveSession() {
	fmt.Fprintln(s.out, "\nMOVE ITEM MODE - Scan items (type 'finish' to exit)")

	target := s.promptLocation("\nScan target location barcode: ")
	if target == "" {
		return
	}
	name, err := s.store.LocationName(target)
	if err == nil {
		fmt.Fprintf(s.out, "Target location: %s\n", name)
	}

	for {
		raw, ok := s.prompt("\nScan item barcode: ")
		if !ok || strings.EqualFold(raw, "finish") {
			return
		}
		if raw == "" {
			continue
		}

		decoded, err := s.store.Decode(raw, false)
		if err != nil {
			fmt.Fprintln(s.out, "Invalid barcode! Expected format: XXXX_DD_MM_YY_GX_XXXX")
			continue
		}
		if s.reportError(s.store.MoveTo(decoded, target)) {
			fmt.Fprintf(s.out, "Item moved to %s\n", name)
		}
	}
}

func (s *Session) batchSession() {
	fmt.Fprintln(s.out, "\nBATCH CREATION MODE")

	locationBarcode := s.promptLocation("Scan location barcode for this batch: ")
	if locationBarcode == "" {
		fmt.Fprintln(s.out, "Location is required for batch creation!")
		return
	}

	raw, ok := s.prompt("Scan batch or item barcode: ")
	if !ok || raw == "" {
		return
	}
	decoded, err := s.store.Decode(raw, false)
	if err != nil {
		fmt.Fprintln(s.out, "Invalid barcode format!")
		return
	}

	qtyStr, ok := s.prompt("Quantity: ")
	if !ok {
		return
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil || qty <= 0 {
		fmt.Fprintln(s.out, "Quantity must be a positive number")
		return
	}

	res, err := s.store.CreateBatch(decoded, qty, locationBarcode)
	if !s.reportError(err) {
		return
	}
	fmt.Fprintf(s.out, "Created %d items for batch %s\n", res.Quantity, res.BatchBarcode)
	fmt.Fprintf(s.out, "Items range: %s to %s\n", res.FirstBarcode, res.LastBarcode)
}

func (s *Session) noteSession() {
	raw, ok := s.prompt("Scan barcode for note: ")
	if !ok || raw == "" {
		return
	}
	current, err := s.store.GetNote(raw)
	if err == nil && current != "" {
		fmt.Fprintf(s.out, "Current note: %s\n", current)
	}
	text, ok := s.prompt("Enter note: ")
	if !ok {
		return
	}
	if s.reportError(s.store.SetNote(raw, text)) {
		fmt.Fprintln(s.out, "Note added/updated successfully!")
	}
}

func (s *Session) purgeSession() {
	fmt.Fprintln(s.out, "\nWARNING: This will permanently delete ALL items marked as OUT!")
	confirm, ok := s.prompt("Are you sure? (type 'DELETE ALL' to confirm): ")
	if !ok {
		return
	}
	count, err := s.store.PurgeOutItems(confirm)
	if errors.Is(err, store.ErrNotConfirmed) {
		fmt.Fprintln(s.out, "Operation cancelled.")
		return
	}
	if !s.reportError(err) {
		return
	}
	if count == 0 {
		fmt.Fprintln(s.out, "No OUT items found. Nothing deleted.")
		return
	}
	fmt.Fprintf(s.out, "Deleted %d OUT items and all their associated data.\n", count)
}

func (s *Session) locationsMenu() {
	for {
		fmt.Fprintln(s.out, "\nLOCATION MANAGEMENT")
		fmt.Fprintln(s.out, "1: List locations")
		fmt.Fprintln(s.out, "2: Register location")
		fmt.Fprintln(s.out, "3: Remove location")
		fmt.Fprintln(s.out, "0: Back")

		choice, ok := s.prompt("Select: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			locations, err := s.store.ListLocations()
			if !s.reportError(err) {
				continue
			}
			if len(locations) == 0 {
				fmt.Fprintln(s.out, "No locations registered yet!")
				continue
			}
			fmt.Fprintf(s.out, "%-15s %-25s\n", "Barcode", "Location Name")
			for _, loc := range locations {
				fmt.Fprintf(s.out, "%-15s %-25s\n", loc.Barcode, loc.Name)
			}
		case "2":
			bc, ok := s.prompt("Location barcode: ")
			if !ok {
				return
			}
			if barcode.LooksLikeIdentifier(bc) {
				fmt.Fprintln(s.out, "That looks like an item barcode, not a location.")
				continue
			}
			name, ok := s.prompt("Location name (e.g. 'Shelf 1'): ")
			if !ok {
				return
			}
			if s.reportError(s.store.RegisterLocation(bc, name)) {
				fmt.Fprintf(s.out, "Location %s successfully registered!\n", name)
			}
		case "3":
			bc, ok := s.prompt("Scan location barcode to remove: ")
			if !ok {
				return
			}
			if s.reportError(s.store.RemoveLocation(bc)) {
				fmt.Fprintln(s.out, "Location removed successfully!")
			}
		case "0":
			return
		default:
			fmt.Fprintln(s.out, "Invalid selection!")
		}
	}
}

func (s *Session) itemCodesMenu() {
	for {
		fmt.Fprintln(s.out, "\nITEM CODE MANAGEMENT")
		fmt.Fprintln(s.out, "1: List item codes")
		fmt.Fprintln(s.out, "2: Add/update item code")
		fmt.Fprintln(s.out, "3: Remove item code")
		fmt.Fprintln(s.out, "0: Back")

		choice, ok := s.prompt("Select: ")
		if !ok {
			return
		}
		switch choice {
		case "1":
			types, err := s.store.ListItemTypes()
			if !s.reportError(err) {
				continue
			}
			fmt.Fprintf(s.out, "%-10s %-25s\n", "Code", "Item Name")
			for _, t := range types {
				fmt.Fprintf(s.out, "%-10s %-25s\n", t.Code, t.Name)
			}
		case "2":
			code, ok := s.prompt("Item code (e.g. 'PIPI'): ")
			if !ok {
				return
			}
			name, ok := s.prompt("Item name (e.g. 'Pio Pino'): ")
			if !ok {
				return
			}
			if s.reportError(s.store.UpsertItemType(code, name)) {
				fmt.Fprintln(s.out, "Item code saved!")
			}
		case "3":
			code, ok := s.prompt("Item code to remove: ")
			if !ok {
				return
			}
			if s.reportError(s.store.RemoveItemType(code)) {
				fmt.Fprintln(s.out, "Item code removed!")
			}
		case "0":
			return
		default:
			fmt.Fprintln(s.out, "Invalid selection!")
		}
	}
}

func (s *Session) reportSession() {
	fmt.Fprintln(s.out, "\nFilter options (leave blank for all):")
	itemType, ok := s.prompt("Item type: ")
	if !ok {
		return
	}
	gen, ok := s.prompt("Generation: ")
	if !ok {
		return
	}
	loc, ok := s.prompt("Location barcode: ")
	if !ok {
		return
	}
	date, ok := s.prompt("Created date (DD.MM.YYYY): ")
	if !ok {
		return
	}

	rows, err := s.query.DetailedReport(report.Filters{
		ItemType:        itemType,
		Generation:      gen,
		LocationBarcode: loc,
		CreatedDate:     date,
	})
	if !s.reportError(err) {
		return
	}

	fmt.Fprintln(s.out, "\nDETAILED ITEM REPORT (LATEST STATUS)")
	fmt.Fprintf(s.out, "%-22s %-12s %-5s %-8s %-12s %-15s %-30s\n",
		"Barcode", "Type", "Gen", "Status", "Create Date", "Location", "Note")
	for _, row := range rows {
		fmt.Fprintf(s.out, "%-22s %-12s %-5s %-8s %-12s %-15s %-30s\n",
			row.FullBarcode, row.ItemType, row.Generation, row.CurrentStatus,
			row.CreatedDate, row.LocationName, row.Note)
	}
	fmt.Fprintf(s.out, "\nTotal entries: %d\n", len(rows))

	if path, ok := s.prompt("Export to XLSX (path, blank to skip): "); ok && path != "" {
		if err := report.ExportDetailedXLSX(rows, path); err != nil {
			s.log.WithError(err).Error("xlsx export failed")
			fmt.Fprintf(s.out, "Export failed: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "Report exported to %s\n", path)
	}
}

func (s *Session) showLastScan(d *barcode.Decoded, status string) {
	note, _ := s.store.GetNote(d.FullBarcode)
	location, _ := s.store.CurrentLocation(d.FullBarcode)

	fmt.Fprintln(s.out, "\n==================================================")
	fmt.Fprintln(s.out, "LAST SCAN:")
	fmt.Fprintf(s.out, "Type:      %s\n", d.ItemType)
	fmt.Fprintf(s.out, "Generation:%s\n", d.Generation)
	fmt.Fprintf(s.out, "Date:      %s\n", d.CreatedDate)
	fmt.Fprintf(s.out, "Status:    %s\n", status)
	fmt.Fprintf(s.out, "Location:  %s\n", location)
	fmt.Fprintf(s.out, "Note:      %s\n", note)
	fmt.Fprintf(s.out, "Barcode:   %s\n", d.FullBarcode)
	fmt.Fprintln(s.out, "==================================================")
}

func (s *Session) printInventory() {
	rows, err := s.query.InventorySummary()
	if err != nil {
		s.log.WithError(err).Error("inventory summary failed")
		return
	}
	fmt.Fprintln(s.out, "\nCURRENT INVENTORY REPORT")
	fmt.Fprintf(s.out, "%-15s %-5s %-7s %-11s %-11s\n", "Type", "Gen", "Total", "In Stock", "Out")
	for _, r := range rows {
		fmt.Fprintf(s.out, "%-15s %-5s %-7d %-11d %-11d\n", r.ItemType, r.Generation, r.Total, r.InStock, r.OutCount)
	}
}

// reportError renders a store failure for the operator and reports whether
// the operation succeeded. Contention gets a "try again" hint, input errors
// a correction hint; anything else is logged and shown as-is.
func (s *Session) reportError(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, store.ErrLockTimeout):
		fmt.Fprintln(s.out, "Database is busy. Please scan again.")
	case errors.Is(err, store.ErrUnknownLocation):
		fmt.Fprintln(s.out, "Location not registered! Please register first.")
	case errors.Is(err, store.ErrItemNotFound):
		fmt.Fprintln(s.out, "Item not found!")
	case errors.Is(err, store.ErrInvalidFormat):
		fmt.Fprintf(s.out, "Invalid input: %v\n", err)
	default:
		s.log.WithError(err).Error("operation failed")
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return false
}
