package store

import (
	"time"

	"itemtrack/internal/barcode"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// Store owns entity persistence and the item status/location state machine.
// Every public mutation runs as one transaction against the shared file,
// with lock contention absorbed by the retry runner in txn.go.
type Store struct {
	db         *gorm.DB
	log        *logrus.Logger
	maxRetries int
	retryDelay time.Duration
}

type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	Logger     *logrus.Logger
}

func New(db *gorm.DB, opts Options) *Store {
	s := &Store{
		db:         db,
		log:        opts.Logger,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.maxRetries < 1 {
		s.maxRetries = defaultMaxRetries
	}
	if s.retryDelay <= 0 {
		s.retryDelay = defaultRetryDelay
	}
	return s
}

// DB exposes the underlying handle for read-only collaborators (reports).
func (s *Store) DB() *gorm.DB { return s.db }

// Decode parses a raw scan with the item-code registry wired in as the
// type resolver.
func (s *Store) Decode(raw string, expectBatch bool) (*barcode.Decoded, error) {
	return barcode.Decode(raw, expectBatch, s.ResolveTypeCode)
}
