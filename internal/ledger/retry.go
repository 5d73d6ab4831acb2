package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	crerrors "github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	writeConflictCode = 112

	retryInitialInterval = 20 * time.Millisecond
	retryMaxInterval     = 250 * time.Millisecond
)

// withRetry runs op until it succeeds, fails permanently or maxRetries
// transient failures have been absorbed. Exhaustion is marked ErrConflict.
func withRetry(ctx context.Context, maxRetries int, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval
	policy.MaxElapsedTime = 0

	lastWasTransient := false
	err := backoff.Retry(func() error {
		err := op()
		lastWasTransient = err != nil && isTransient(err)
		if err != nil && !lastWasTransient {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(maxRetries, 0))), ctx))

	if err != nil && lastWasTransient && ctx.Err() == nil {
		return crerrors.Mark(crerrors.Wrap(err, "retries exhausted"), ErrConflict)
	}
	return err
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if mongo.IsNetworkError(err) {
		return true
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		if labeled.HasErrorLabel("TransientTransactionError") || labeled.HasErrorLabel("RetryableWriteError") {
			return true
		}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}

// IsConflict reports whether err is a retry exhaustion from the ledger.
func IsConflict(err error) bool {
	return crerrors.Is(err, ErrConflict)
}
