// Package txn runs units of work inside database transactions and retries
// them when the store reports a transient failure.
package txn

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultInitialInterval = 50 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

// Policy bounds the retries of one invocation. Operation labels log lines.
type Policy struct {
	MaxRetries int
	Operation  string
}

// Executor owns the store handle transactions are opened on.
type Executor struct {
	db              *gorm.DB
	logger          *zap.Logger
	initialInterval time.Duration
	maxInterval     time.Duration
	isTransient     func(error) bool
}

// Option customizes an Executor.
type Option func(*Executor)

// WithBackoff overrides the exponential backoff bounds between attempts.
func WithBackoff(initial, max time.Duration) Option {
	return func(e *Executor) {
		if initial > 0 {
			e.initialInterval = initial
		}
		if max > 0 {
			e.maxInterval = max
		}
	}
}

// WithClassifier replaces IsTransient as the retry predicate.
func WithClassifier(fn func(error) bool) Option {
	return func(e *Executor) {
		if fn != nil {
			e.isTransient = fn
		}
	}
}

// NewExecutor builds an executor bound to db.
func NewExecutor(db *gorm.DB, logger *zap.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		db:              db,
		logger:          logger,
		initialInterval: defaultInitialInterval,
		maxInterval:     defaultMaxInterval,
		isTransient:     IsTransient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DB exposes the underlying handle for read paths that need no transaction.
func (e *Executor) DB() *gorm.DB {
	return e.db
}

// Run executes fn inside a fresh transaction. Transient failures are retried
// up to policy.MaxRetries more times, each on a new transaction; any other
// failure is returned at once. When retries run out the last error is
// returned unchanged.
func Run[T any](ctx context.Context, e *Executor, policy Policy, fn func(tx *gorm.DB) (T, error)) (T, error) {
	attempt := 0

	operation := func() (T, error) {
		attempt++

		var out T
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			out, err = fn(tx)
			return err
		})
		if err != nil {
			var zero T
			if !e.isTransient(err) {
				return zero, backoff.Permanent(err)
			}
			return zero, err
		}
		return out, nil
	}

	notify := func(err error, delay time.Duration) {
		e.logger.Warn("retrying transaction",
			zap.String("operation", policy.Operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
	}

	result, err := backoff.RetryNotifyWithData(operation, e.backoff(ctx, policy.MaxRetries), notify)
	if err != nil {
		e.logger.Debug("transaction failed",
			zap.String("operation", policy.Operation),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return result, err
	}
	return result, nil
}

// Exec is Run for units of work that produce no value.
func Exec(ctx context.Context, e *Executor, policy Policy, fn func(tx *gorm.DB) error) error {
	_, err := Run(ctx, e, policy, func(tx *gorm.DB) (struct{}, error) {
		return struct{}{}, fn(tx)
	})
	return err
}

func (e *Executor) backoff(ctx context.Context, maxRetries int) backoff.BackOff {
	if maxRetries < 0 {
		maxRetries = 0
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.initialInterval
	exp.MaxInterval = e.maxInterval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)
}
