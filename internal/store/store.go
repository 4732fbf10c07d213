// Package store wraps the GORM handle with the transaction policy the ledger
// requires: serializable isolation and a bounded retry of serialization
// conflicts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/voltlabs/credmarket/internal/metrics"
)

// ErrConflict reports that the transactional commit hit a write-write conflict
// and the bounded retries were exhausted. The whole operation (read, validate,
// compute, commit) was re-run on each attempt.
var ErrConflict = errors.New("store conflict")

const (
	// DefaultMaxRetries bounds conflict retries by count, not time. Three
	// retries rides out transient contention on a hot pool without letting a
	// pathological workload pin a request handler.
	DefaultMaxRetries = 3

	defaultInitialBackoff = 10 * time.Millisecond
)

// Postgres SQLSTATEs that mark a transaction as safe to retry.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// Runner executes ledger transactions against a GORM handle. The handle is
// injected by the caller; nothing in this package holds global state.
type Runner struct {
	db         *gorm.DB
	logger     zerolog.Logger
	isolation  sql.IsolationLevel
	maxRetries uint64
	backoff    time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithIsolation overrides the transaction isolation level. Tests running on
// SQLite use the driver default; production uses serializable.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(r *Runner) { r.isolation = level }
}

// WithMaxRetries bounds how many times a conflicted transaction is re-run.
func WithMaxRetries(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxRetries = uint64(n)
		}
	}
}

// New builds a Runner with serializable isolation and the default retry bound.
func New(db *gorm.DB, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		db:         db,
		logger:     logger.With().Str("component", "store").Logger(),
		isolation:  sql.LevelSerializable,
		maxRetries: DefaultMaxRetries,
		backoff:    defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DB exposes the underlying handle for read-only projections. Mutations go
// through RunInTx.
func (r *Runner) DB() *gorm.DB {
	return r.db
}

// RunInTx executes fn inside a transaction. The transaction commits as one
// indivisible unit; on a serialization conflict the whole fn is re-run against
// a fresh snapshot, up to the retry bound. Any other error aborts immediately
// and rolls back.
func (r *Runner) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	attempt := func() error {
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		}, &sql.TxOptions{Isolation: r.isolation})
		if err == nil {
			return nil
		}
		if isRetryableConflict(err) {
			return errors.Join(ErrConflict, err)
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.backoff

	notify := func(err error, wait time.Duration) {
		metrics.RecordLedgerTxRetry()
		r.logger.Warn().Err(err).Dur("backoff", wait).Msg("retrying conflicted transaction")
	}

	return backoff.RetryNotify(
		attempt,
		backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx),
		notify,
	)
}

func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected
	}
	return false
}
