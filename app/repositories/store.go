// Package repositories is the storage service: the only code that talks to
// the relational store. Every method runs under the configured acquire
// timeout and reports failures as apperr types.
package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/metrics"
)

// Options tunes a Store.
type Options struct {
	// AcquireTimeout bounds each operation, including waiting for a pooled
	// connection. Zero means no deadline beyond the caller's.
	AcquireTimeout time.Duration
	// Now stamps server-set timestamps. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Store wraps the shared gorm pool.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

// New builds a Store over an already connected pool (see database.Connect).
func New(db *gorm.DB, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{db: db, timeout: opts.AcquireTimeout, now: now}
}

// run executes fn with a deadline-bound session and classifies its error.
func (s *Store) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) (err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ObserveDBQuery(op, start, nil)
			return
		}
		metrics.ObserveDBQuery(op, start, err)
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return classify(op, fn(s.db.WithContext(ctx)))
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.run(ctx, "ping", func(tx *gorm.DB) error {
		sqlDB, err := tx.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(tx.Statement.Context)
	})
}

// classify maps driver and gorm errors onto the apperr taxonomy. Errors that
// are already typed, and gorm.ErrRecordNotFound, pass through unchanged.
func classify(op string, err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
		ce *apperr.ConstraintError
		su *apperr.StoreUnavailableError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ce) || errors.As(err, &su) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err):
		return apperr.Constraint("A record with the same unique value already exists", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated) || isForeignKey(err):
		return apperr.Constraint("The record is referenced by or references another record", err)
	}
	return &apperr.StoreUnavailableError{Op: op, Err: err}
}

// Driver messages for the cases TranslateError does not cover on every dialect.
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

func isForeignKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") ||
		strings.Contains(msg, "violates foreign key")
}
