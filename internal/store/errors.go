package store

import (
	"errors"

	"itemtrack/internal/barcode"
)

// ErrInvalidFormat is re-exported so callers can treat decode failures and
// store validation failures through one package.
var ErrInvalidFormat = barcode.ErrInvalidFormat

var (
	// ErrUnknownLocation: the referenced location barcode is not registered.
	ErrUnknownLocation = errors.New("location not registered")

	// ErrItemNotFound: the operation targets a barcode with no item row and
	// does not auto-create one.
	ErrItemNotFound = errors.New("item not found")

	// ErrLockTimeout: the retry budget against a busy database file is
	// exhausted. Transient; the same input may be re-presented.
	ErrLockTimeout = errors.New("database locked, retries exhausted")

	// ErrNotConfirmed: the purge confirmation token did not match.
	ErrNotConfirmed = errors.New("operation not confirmed")

	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrDuplicateLocation = errors.New("location barcode already registered")
	ErrLocationInUse     = errors.New("location has items assigned")
	ErrUnknownItemType   = errors.New("item code not registered")
	ErrItemTypeInUse     = errors.New("item code has items associated")
)
