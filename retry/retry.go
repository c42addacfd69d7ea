// Package retry re-evaluates a fallible probe once per tick until it succeeds.
package retry

import (
	"context"
	"errors"
	"time"
)

type stopError struct {
	err error
}

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop marks err as final: Until returns it instead of trying again.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// Until calls probe immediately and then once per interval until it returns
// a nil error, a Stop error, or ctx is done. There is no attempt limit.
func Until[T any](ctx context.Context, interval time.Duration, probe func() (T, error)) (T, error) {
	v, err := probe()
	if done, err := finished(err); done {
		return v, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ticker.C:
		}

		v, err = probe()
		if done, err := finished(err); done {
			return v, err
		}
	}
}

func finished(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var stop *stopError
	if errors.As(err, &stop) {
		return true, stop.err
	}
	return false, err
}
