package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/zatekoja/clinicdesk/backend/pkg/errors"
)

// callBounded runs fn under its own deadline and returns as soon as either
// fn settles or the deadline passes. A probe that ignores its context is
// abandoned, and a panicking probe becomes an internal error.
func callBounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: apperrors.NewInternalError(fmt.Sprintf("probe panicked: %v", r), nil)}
			}
		}()
		val, err := fn(ctx)
		done <- result{val: val, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, apperrors.NewTimeoutError(fmt.Sprintf("exceeded %s", timeout), ctx.Err())
		}
		return zero, apperrors.NewExternalError("cancelled", ctx.Err())
	}
}
