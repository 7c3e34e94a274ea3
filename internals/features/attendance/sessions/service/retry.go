package service

import (
	"context"
	"time"

	"absensiku_backend/internals/features/attendance/sessions/repository"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy hanya untuk jalur baca. Jalur tulis tidak pernah di-retry
// otomatis: hasil timeout ambigu bisa jadi transisi ganda.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

var DefaultReadRetry = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

// linearBackOff: jeda ke-n = n * Step.
type linearBackOff struct {
	Step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.Step
}

func (b *linearBackOff) Reset() { b.n = 0 }

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{Step: p.Backoff}, uint64(attempts-1)),
		ctx,
	)
}

// retryRead mengulang fn hanya untuk error transient (repository.IsTransient).
func retryRead(ctx context.Context, p RetryPolicy, fn func() error) error {
	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !repository.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx))
}
