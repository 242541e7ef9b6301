// Package backoff implements C14: exponential backoff with decorrelated
// jitter, used to retry ServiceThrottled failures and to drive the lock
// primitive's --wait loop. Conflict (condition-failed) errors are never
// retried here; that policy is primitive-specific 
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package backoff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// Policy configures the retry loop. Base/Cap/Multiplier follow the lock
// acquire --wait defaults from  (base 100ms, factor 2, cap 2s).
type Policy struct {
	Base        time.Duration
	Cap         time.Duration
	Multiplier  float64
	MaxAttempts int
}

// DefaultPolicy matches the lock primitive's documented retry shape.
func DefaultPolicy() Policy {
	return Policy{Base: 100 * time.Millisecond, Cap: 2 * time.Second, Multiplier: 2, MaxAttempts: 0}
}

func (p Policy) newExponential() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.Base
	eb.MaxInterval = p.Cap
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = 0.5 // decorrelated jitter
	eb.MaxElapsedTime = 0        // caller bounds total time via context deadline
	return eb
}

// Retry runs fn until it succeeds, the context is done, or MaxAttempts is
// exhausted. Only errors classified as errs.KindServiceThrottled are
// retried; any other error (notably ConditionFailed) returns immediately.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	eb := p.newExponential()
	withCtx := backoff.WithContext(eb, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		classified := errs.As(err)
		if classified.Kind != errs.KindServiceThrottled {
			return backoff.Permanent(err)
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(operation, withCtx); err != nil {
		if pe, ok := err.(*backoff.PermanentError); ok {
			return pe.Err
		}
		return err
	}
	return nil
}

// Sleep waits for d or until ctx is cancelled, returning ctx.Err() in the
// latter case. Used by the lock primitive's --wait loop between retries.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
