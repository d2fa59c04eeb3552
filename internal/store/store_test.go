package store_test

import (
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"itemtrack/internal/barcode"
	"itemtrack/internal/database"
	"itemtrack/internal/models"
	"itemtrack/internal/store"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStore(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	st := store.New(db, store.Options{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Logger:     quietLogger(),
	})
	return st, db
}

func decodeItem(t *testing.T, st *store.Store, raw string) *barcode.Decoded {
	t.Helper()
	d, err := st.Decode(raw, false)
	if err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return d
}

func mustRegisterLocation(t *testing.T, st *store.Store, bc, name string) {
	t.Helper()
	if err := st.RegisterLocation(bc, name); err != nil {
		t.Fatalf("register location %s: %v", bc, err)
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestEnsureItemIdempotent(t *testing.T) {
	st, db := newTestStore(t)
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")

	if err := st.EnsureItemExists(d); err != nil {
		t.Fatalf("first EnsureItemExists: %v", err)
	}
	if err := st.EnsureItemExists(d); err != nil {
		t.Fatalf("second EnsureItemExists: %v", err)
	}

	if n := countRows(t, db, &models.Item{}, "full_barcode = ?", d.FullBarcode); n != 1 {
		t.Fatalf("item rows = %d, want exactly 1", n)
	}

	var item models.Item
	if err := db.Where("full_barcode = ?", d.FullBarcode).First(&item).Error; err != nil {
		t.Fatalf("read item: %v", err)
	}
	if item.BatchBarcode != "PIPI_01_02_23_G1" {
		t.Errorf("BatchBarcode = %q, want first 5 fields", item.BatchBarcode)
	}
	if item.ItemType != "PioPino" {
		t.Errorf("ItemType = %q, want PioPino (seeded registry)", item.ItemType)
	}
	if item.CurrentStatus != models.StatusIn {
		t.Errorf("CurrentStatus = %q, want IN", item.CurrentStatus)
	}
}

func TestEnsureItemConcurrent(t *testing.T) {
	st, db := newTestStore(t)
	d := decodeItem(t, st, "CHNU_05_06_24_G2_0010")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = st.EnsureItemExists(d)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if n := countRows(t, db, &models.Item{}, "full_barcode = ?", d.FullBarcode); n != 1 {
		t.Fatalf("item rows = %d, want exactly 1", n)
	}
}

func TestCheckInLazyCreatesAndLogs(t *testing.T) {
	st, db := newTestStore(t)
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")

	if err := st.CheckIn(d); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	status, err := st.ItemStatus(d.FullBarcode)
	if err != nil {
		t.Fatalf("ItemStatus: %v", err)
	}
	if status != models.StatusIn {
		t.Errorf("status = %q, want IN", status)
	}
	if n := countRows(t, db, &models.ScanEvent{}, "barcode = ? AND status = ?", d.FullBarcode, models.StatusIn); n != 1 {
		t.Errorf("IN scan events = %d, want 1", n)
	}
}

func TestCheckOutFlipsStatus(t *testing.T) {
	st, db := newTestStore(t)
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")

	if err := st.CheckIn(d); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if err := st.CheckOut(d); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	status, err := st.ItemStatus(d.FullBarcode)
	if err != nil {
		t.Fatalf("ItemStatus: %v", err)
	}
	if status != models.StatusOut {
		t.Errorf("status = %q, want OUT", status)
	}
	// One event per transition.
	if n := countRows(t, db, &models.ScanEvent{}, "barcode = ?", d.FullBarcode); n != 2 {
		t.Errorf("scan events = %d, want 2", n)
	}
}

func TestMoveToRestoresInStatus(t *testing.T) {
	st, db := newTestStore(t)
	mustRegisterLocation(t, st, "GROWTENT1", "Grow Tent 1")
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")

	if err := st.CheckOut(d); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	scansBefore := countRows(t, db, &models.ScanEvent{}, "barcode = ?", d.FullBarcode)
	assignsBefore := countRows(t, db, &models.LocationAssignment{}, "")

	if err := st.MoveTo(d, "GROWTENT1"); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}

	status, err := st.ItemStatus(d.FullBarcode)
	if err != nil {
		t.Fatalf("ItemStatus: %v", err)
	}
	if status != models.StatusIn {
		t.Errorf("status after move = %q, want IN", status)
	}
	if n := countRows(t, db, &models.LocationAssignment{}, ""); n != assignsBefore+1 {
		t.Errorf("assignments = %d, want exactly one more than %d", n, assignsBefore)
	}
	if n := countRows(t, db, &models.ScanEvent{}, "barcode = ?", d.FullBarcode); n != scansBefore+1 {
		t.Errorf("scan events = %d, want exactly one more than %d", n, scansBefore)
	}

	loc, err := st.CurrentLocation(d.FullBarcode)
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if loc != "Grow Tent 1" {
		t.Errorf("CurrentLocation = %q, want Grow Tent 1", loc)
	}
}

func TestMoveToUnknownLocation(t *testing.T) {
	st, db := newTestStore(t)
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")

	err := st.MoveTo(d, "NOWHERE")
	if !errors.Is(err, store.ErrUnknownLocation) {
		t.Fatalf("MoveTo error = %v, want ErrUnknownLocation", err)
	}
	// Fail-fast: the lazy create must not have happened either.
	if n := countRows(t, db, &models.Item{}, ""); n != 0 {
		t.Errorf("item rows = %d, want 0 after rejected move", n)
	}
}

func TestCurrentLocationTracksNewestAssignment(t *testing.T) {
	st, _ := newTestStore(t)
	mustRegisterLocation(t, st, "SHELF1", "Shelf 1")
	mustRegisterLocation(t, st, "SHELF2", "Shelf 2")
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")

	if err := st.MoveTo(d, "SHELF1"); err != nil {
		t.Fatalf("first MoveTo: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := st.MoveTo(d, "SHELF2"); err != nil {
		t.Fatalf("second MoveTo: %v", err)
	}

	loc, err := st.CurrentLocation(d.FullBarcode)
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if loc != "Shelf 2" {
		t.Errorf("CurrentLocation = %q, want Shelf 2 (newest assignment)", loc)
	}
}

func TestCurrentLocationSentinel(t *testing.T) {
	st, _ := newTestStore(t)
	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")
	if err := st.EnsureItemExists(d); err != nil {
		t.Fatalf("EnsureItemExists: %v", err)
	}
	loc, err := st.CurrentLocation(d.FullBarcode)
	if err != nil {
		t.Fatalf("CurrentLocation: %v", err)
	}
	if loc != store.NoLocation {
		t.Errorf("CurrentLocation = %q, want %q", loc, store.NoLocation)
	}
}

func TestCreateBatchAllocatesGlobally(t *testing.T) {
	st, db := newTestStore(t)
	mustRegisterLocation(t, st, "SHELF1", "Shelf 1")

	// Existing suffixes 0001, 0007, 0003 across two different batches.
	for _, raw := range []string{
		"PIPI_01_02_23_G1_0001",
		"CHNU_03_04_23_G2_0007",
		"PIPI_01_02_23_G1_0003",
	} {
		if err := st.EnsureItemExists(decodeItem(t, st, raw)); err != nil {
			t.Fatalf("seed item %s: %v", raw, err)
		}
	}

	d, err := st.Decode("KIOY_05_06_23_G1", true)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	res, err := st.CreateBatch(d, 2, "SHELF1")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	if res.FirstSequence != 8 || res.LastSequence != 9 {
		t.Fatalf("allocated range %d..%d, want 8..9", res.FirstSequence, res.LastSequence)
	}
	for _, want := range []string{"KIOY_05_06_23_G1_0008", "KIOY_05_06_23_G1_0009"} {
		if n := countRows(t, db, &models.Item{}, "full_barcode = ?", want); n != 1 {
			t.Errorf("item %s rows = %d, want 1", want, n)
		}
	}
	// One assignment and one IN scan per created item.
	if n := countRows(t, db, &models.LocationAssignment{}, "location_barcode = ?", "SHELF1"); n != 2 {
		t.Errorf("assignments at SHELF1 = %d, want 2", n)
	}
	if n := countRows(t, db, &models.ScanEvent{}, "barcode LIKE ?", "KIOY%"); n != 2 {
		t.Errorf("batch scan events = %d, want 2", n)
	}
	if n := countRows(t, db, &models.Batch{}, "batch_barcode = ?", "KIOY_05_06_23_G1"); n != 1 {
		t.Errorf("batch records = %d, want 1", n)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	st, _ := newTestStore(t)
	mustRegisterLocation(t, st, "SHELF1", "Shelf 1")
	d, err := st.Decode("PIPI_01_02_23_G1", true)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}

	if _, err := st.CreateBatch(d, 0, "SHELF1"); !errors.Is(err, store.ErrInvalidQuantity) {
		t.Errorf("quantity 0: error = %v, want ErrInvalidQuantity", err)
	}
	if _, err := st.CreateBatch(d, -3, "SHELF1"); !errors.Is(err, store.ErrInvalidQuantity) {
		t.Errorf("negative quantity: error = %v, want ErrInvalidQuantity", err)
	}
	if _, err := st.CreateBatch(d, 2, "NOWHERE"); !errors.Is(err, store.ErrUnknownLocation) {
		t.Errorf("unknown location: error = %v, want ErrUnknownLocation", err)
	}
}

func TestCreateBatchAtomicity(t *testing.T) {
	st, db := newTestStore(t)
	mustRegisterLocation(t, st, "SHELF1", "Shelf 1")
	d, err := st.Decode("PIPI_01_02_23_G1", true)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}

	// Simulate an integrity failure mid-batch: the scan log insert cannot
	// succeed, so the whole batch must roll back.
	if err := db.Migrator().DropTable(&models.ScanEvent{}); err != nil {
		t.Fatalf("drop scan_events: %v", err)
	}

	if _, err := st.CreateBatch(d, 3, "SHELF1"); err == nil {
		t.Fatal("CreateBatch succeeded, want failure")
	}

	if n := countRows(t, db, &models.Item{}, "batch_barcode = ?", "PIPI_01_02_23_G1"); n != 0 {
		t.Errorf("item rows = %d, want 0 after rollback", n)
	}
	if n := countRows(t, db, &models.Batch{}, ""); n != 0 {
		t.Errorf("batch records = %d, want 0 after rollback", n)
	}
	if n := countRows(t, db, &models.LocationAssignment{}, ""); n != 0 {
		t.Errorf("assignments = %d, want 0 after rollback", n)
	}
}

func TestSetNoteUpsert(t *testing.T) {
	st, db := newTestStore(t)

	if err := st.SetNote("PIPI_01_02_23_G1_0001", "oops"); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("note on unknown item: error = %v, want ErrItemNotFound", err)
	}

	d := decodeItem(t, st, "PIPI_01_02_23_G1_0001")
	if err := st.EnsureItemExists(d); err != nil {
		t.Fatalf("EnsureItemExists: %v", err)
	}

	if err := st.SetNote(d.FullBarcode, "first flush looks good"); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if err := st.SetNote(d.FullBarcode, "contaminated, discard"); err != nil {
		t.Fatalf("SetNote overwrite: %v", err)
	}

	note, err := st.GetNote(d.FullBarcode)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note != "contaminated, discard" {
		t.Errorf("note = %q, want the overwritten text", note)
	}
	if n := countRows(t, db, &models.Note{}, ""); n != 1 {
		t.Errorf("note rows = %d, want 1 (upsert, not append)", n)
	}
}

func TestGetNoteAbsent(t *testing.T) {
	st, _ := newTestStore(t)
	note, err := st.GetNote("PIPI_01_02_23_G1_0001")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if note != "" {
		t.Errorf("note = %q, want empty string", note)
	}
}

func TestPurgeOutItems(t *testing.T) {
	st, db := newTestStore(t)
	mustRegisterLocation(t, st, "SHELF1", "Shelf 1")

	barcodes := []string{
		"PIPI_01_02_23_G1_0001",
		"PIPI_01_02_23_G1_0002",
		"CHNU_03_04_23_G2_0003",
		"CHNU_03_04_23_G2_0004",
		"KIOY_05_06_23_G1_0005",
	}
	for _, raw := range barcodes {
		d := decodeItem(t, st, raw)
		if err := st.CheckIn(d); err != nil {
			t.Fatalf("CheckIn %s: %v", raw, err)
		}
		if err := st.AssignLocation(d, "SHELF1"); err != nil {
			t.Fatalf("AssignLocation %s: %v", raw, err)
		}
		if err := st.SetNote(raw, "note for "+raw); err != nil {
			t.Fatalf("SetNote %s: %v", raw, err)
		}
	}
	// Two go OUT, three stay IN.
	for _, raw := range barcodes[:2] {
		if err := st.CheckOut(decodeItem(t, st, raw)); err != nil {
			t.Fatalf("CheckOut %s: %v", raw, err)
		}
	}

	if _, err := st.PurgeOutItems("nope"); !errors.Is(err, store.ErrNotConfirmed) {
		t.Fatalf("bad confirmation: error = %v, want ErrNotConfirmed", err)
	}

	count, err := st.PurgeOutItems("DELETE ALL")
	if err != nil {
		t.Fatalf("PurgeOutItems: %v", err)
	}
	if count != 2 {
		t.Fatalf("purged = %d, want 2", count)
	}

	if n := countRows(t, db, &models.Item{}, ""); n != 3 {
		t.Errorf("remaining items = %d, want 3", n)
	}
	if n := countRows(t, db, &models.Note{}, ""); n != 3 {
		t.Errorf("remaining notes = %d, want 3", n)
	}
	for _, raw := range barcodes[:2] {
		if n := countRows(t, db, &models.ScanEvent{}, "barcode = ?", raw); n != 0 {
			t.Errorf("scan events for purged %s = %d, want 0", raw, n)
		}
	}
	// The survivors keep their histories.
	for _, raw := range barcodes[2:] {
		if n := countRows(t, db, &models.ScanEvent{}, "barcode = ?", raw); n == 0 {
			t.Errorf("scan events for surviving %s = 0, want > 0", raw)
		}
	}

	// Purging again finds nothing; zero is not an error.
	count, err = st.PurgeOutItems("delete all")
	if err != nil {
		t.Fatalf("second PurgeOutItems: %v", err)
	}
	if count != 0 {
		t.Errorf("second purge = %d, want 0", count)
	}
}

func TestItemStatusUnknown(t *testing.T) {
	st, _ := newTestStore(t)
	if _, err := st.ItemStatus("PIPI_01_02_23_G1_9999"); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("ItemStatus error = %v, want ErrItemNotFound", err)
	}
}

func TestLockTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contended.db")

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	// Pin one connection so the short busy timeout sticks to it.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA busy_timeout = 25").Error; err != nil {
		t.Fatalf("shrink busy timeout: %v", err)
	}

	st := store.New(db, store.Options{
		MaxRetries: 3,
		RetryDelay: 5 * time.Millisecond,
		Logger:     quietLogger(),
	})

	// A second handle holds the write lock for the duration of the test.
	other, err := database.Open(path)
	if err != nil {
		t.Fatalf("open second handle: %v", err)
	}
	holder := other.Begin()
	if holder.Error != nil {
		t.Fatalf("begin holding transaction: %v", holder.Error)
	}
	if err := holder.Create(&models.Location{Barcode: "HOLDER", Name: "Holder"}).Error; err != nil {
		t.Fatalf("take write lock: %v", err)
	}
	defer holder.Rollback()

	err = st.RegisterLocation("SHELF1", "Shelf 1")
	if !errors.Is(err, store.ErrLockTimeout) {
		t.Fatalf("error = %v, want ErrLockTimeout", err)
	}

	// After the holder releases, the same input goes through.
	if err := holder.Rollback().Error; err != nil {
		t.Fatalf("release lock: %v", err)
	}
	if err := st.RegisterLocation("SHELF1", "Shelf 1"); err != nil {
		t.Fatalf("retry after release: %v", err)
	}
}

func TestSequenceSkipsMalformedSuffixes(t *testing.T) {
	st, db := newTestStore(t)
	mustRegisterLocation(t, st, "SHELF1", "Shelf 1")

	// A 5-field item barcode has no suffix and must not confuse allocation.
	if err := st.EnsureItemExists(decodeItem(t, st, "PIPI_01_02_23_G1")); err != nil {
		t.Fatalf("seed 5-field item: %v", err)
	}

	d, err := st.Decode("CHNU_03_04_23_G2", true)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	res, err := st.CreateBatch(d, 1, "SHELF1")
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if res.FirstSequence != 1 {
		t.Errorf("FirstSequence = %d, want 1", res.FirstSequence)
	}
	if n := countRows(t, db, &models.Item{}, "full_barcode = ?", "CHNU_03_04_23_G2_0001"); n != 1 {
		t.Errorf("allocated item missing")
	}
}
