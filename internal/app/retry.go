package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"interview-scoring-service/internal/domain"
)

// RetryPolicy bounds how persistence writes are retried.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.InitialInterval <= 0 {
		p.InitialInterval = 50 * time.Millisecond
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = time.Second
	}
	return p
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// persist runs write with retries. A write that still fails is reported as a
// PersistenceError; nothing of the value is kept on the caller side.
func (s *InterviewService) persist(ctx context.Context, op, key string, write func(context.Context) error) error {
	err := backoff.RetryNotify(
		func() error { return write(ctx) },
		s.retry.backOff(ctx),
		func(err error, wait time.Duration) {
			s.log.Warn("persistence retry", "op", op, "key", key, "wait", wait, "error", err)
		},
	)
	if err != nil {
		s.log.Error("persistence failed", "op", op, "key", key, "error", err)
		return &domain.PersistenceError{Op: op, Key: key, Err: err}
	}
	return nil
}
