package sz

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ReplacePolicy controls how ReplaceConflict failures are retried. The zero
// value retries with an exponential back-off for up to
// backoff.DefaultMaxElapsedTime.
type ReplacePolicy struct {
	// MaxAttempts caps the number of attempts, the first included. Zero means
	// no cap.
	MaxAttempts uint

	// MaxElapsed caps the total time spent retrying. Zero keeps the back-off
	// library's default.
	MaxElapsed time.Duration

	// BackOff produces the delays between attempts. Nil uses an exponential
	// back-off.
	BackOff backoff.BackOff

	// OnConflict is called after every conflicting attempt.
	OnConflict func(err error, delay time.Duration)
}

func (p ReplacePolicy) options() []backoff.RetryOption {
	b := p.BackOff
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	opts := []backoff.RetryOption{backoff.WithBackOff(b)}
	if p.MaxAttempts > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxAttempts))
	}
	if p.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.MaxElapsed))
	}
	if p.OnConflict != nil {
		opts = append(opts, backoff.WithNotify(p.OnConflict))
	}
	return opts
}

// RetryOnReplaceConflict runs op until it succeeds, fails with anything other
// than a ReplaceConflict error, or the policy gives up. The last error is
// returned when the policy gives up.
func RetryOnReplaceConflict[T any](ctx context.Context, p ReplacePolicy, op func(ctx context.Context) (T, error)) (T, error) {
	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !errors.Is(err, ErrReplaceConflict) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, p.options()...)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return v, err
}

// UpdateDefaultConfig applies mutate to a snapshot of the current default
// configuration, registers the result and swaps it in as the default with a
// compare-and-replace. When another writer changed the default in between,
// the whole read-mutate-register-replace cycle is retried per p. It returns
// the id of the configuration that became the default.
func (m *ConfigManager) UpdateDefaultConfig(ctx context.Context, p ReplacePolicy, comment string, mutate func(ctx context.Context, cfg *Config) error) (int64, error) {
	return RetryOnReplaceConflict(ctx, p, func(ctx context.Context) (int64, error) {
		current, err := m.DefaultConfigID(ctx)
		if err != nil {
			return 0, err
		}
		cfg, err := m.CreateConfigFromID(ctx, current)
		if err != nil {
			return 0, err
		}
		if err := mutate(ctx, cfg); err != nil {
			return 0, err
		}
		next, err := m.RegisterConfig(ctx, cfg.Export(), comment)
		if err != nil {
			return 0, err
		}
		if err := m.ReplaceDefaultConfigID(ctx, current, next); err != nil {
			return 0, err
		}
		return next, nil
	})
}
