package barcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Delimiter separates barcode fields: CODE_DD_MM_YY_G[_NNNN].
const Delimiter = "_"

// UnknownType is returned for type codes missing from the registry. Scans
// must never hard-fail on an unregistered code.
const UnknownType = "Unknown"

var ErrInvalidFormat = errors.New("invalid barcode format")

// TypeResolver maps a barcode type code to its display name. The store wires
// the item-code registry in here; a nil resolver yields UnknownType.
type TypeResolver func(code string) string

// Decoded is the result of parsing a batch or item barcode.
type Decoded struct {
	FullBarcode string
	TypeCode    string
	ItemType    string
	Generation  string
	CreatedDate string // DD.MM.YYYY
	Sequence    string // zero-padded suffix, empty for 5-field barcodes
}

// IsItem reports whether the barcode names an individual item rather than a batch.
func (d *Decoded) IsItem() bool { return d.Sequence != "" }

// Decode parses a barcode. A batch identifier has exactly 5 fields, an item
// identifier 5 or 6 (the 6th being the sequence suffix). Two-digit years are
// interpreted as 2000+YY; pre-2000 creation dates are not representable.
func Decode(raw string, expectBatch bool, resolve TypeResolver) (*Decoded, error) {
	parts := strings.Split(raw, Delimiter)

	if expectBatch && len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidFormat, len(parts))
	}
	if !expectBatch && len(parts) != 5 && len(parts) != 6 {
		return nil, fmt.Errorf("%w: expected 5 or 6 fields, got %d", ErrInvalidFormat, len(parts))
	}

	day, month := parts[1], parts[2]
	year, err := strconv.Atoi(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: bad year field %q", ErrInvalidFormat, parts[3])
	}
	if _, err := strconv.Atoi(day); err != nil {
		return nil, fmt.Errorf("%w: bad day field %q", ErrInvalidFormat, day)
	}
	if _, err := strconv.Atoi(month); err != nil {
		return nil, fmt.Errorf("%w: bad month field %q", ErrInvalidFormat, month)
	}
	if year < 100 {
		year += 2000
	}

	d := &Decoded{
		FullBarcode: raw,
		TypeCode:    parts[0],
		ItemType:    UnknownType,
		Generation:  parts[4],
		CreatedDate: fmt.Sprintf("%s.%s.%d", day, month, year),
	}
	if len(parts) == 6 {
		d.Sequence = parts[5]
	}
	if resolve != nil {
		d.ItemType = resolve(d.TypeCode)
	}
	return d, nil
}

// LooksLikeIdentifier reports whether the text has the delimited-field shape
// of a batch or item barcode (5 or 6 fields). It is a heuristic used to catch
// an item barcode scanned where a location barcode is expected, not a strict
// validator.
func LooksLikeIdentifier(s string) bool {
	if s == "" {
		return false
	}
	n := len(strings.Split(s, Delimiter))
	return n == 5 || n == 6
}

// BatchPrefix derives the batch barcode from a full item barcode: the first
// 5 fields joined by the delimiter. Returns the input unchanged when it has
// 5 fields or fewer.
func BatchPrefix(full string) string {
	parts := strings.Split(full, Delimiter)
	if len(parts) <= 5 {
		return full
	}
	return strings.Join(parts[:5], Delimiter)
}

// Normalize strips non-alphanumeric runes and upper-cases the rest. Location
// barcodes and type codes are stored in this form.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsAlphanumeric reports whether s is non-empty and contains only letters and digits.
func IsAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
