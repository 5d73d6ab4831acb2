package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func writeConflict() error {
	return mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict", Message: "write conflict"}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"write conflict command error", writeConflict(), true},
		{"transient label", mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}, true},
		{"retryable write label", mongo.CommandError{Code: 91, Labels: []string{"RetryableWriteError"}}, true},
		{"write exception conflict", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: writeConflictCode}}}, true},
		{"duplicate key", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, false},
		{"context canceled", context.Canceled, false},
		{"no documents", mongo.ErrNoDocuments, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 3, func() error {
			calls++
			if calls < 3 {
				return writeConflict()
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhaustion is a conflict", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 2, func() error {
			calls++
			return writeConflict()
		})
		assert.True(t, IsConflict(err), "got %v", err)
		assert.Equal(t, 3, calls, "one attempt plus two retries")
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 5, func() error {
			calls++
			return mongo.ErrNoDocuments
		})
		assert.ErrorIs(t, err, mongo.ErrNoDocuments)
		assert.False(t, IsConflict(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("zero retries runs once", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, 0, func() error {
			calls++
			return writeConflict()
		})
		assert.True(t, IsConflict(err))
		assert.Equal(t, 1, calls)
	})
}
