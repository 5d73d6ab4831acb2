package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"tourbook/pkg/logger"
)

func testConsumer(maxRetries int, handler MessageHandler) *Consumer {
	return &Consumer{
		topic:        "booking-events",
		maxRetries:   maxRetries,
		retryBackoff: time.Millisecond,
		handler:      handler,
		log:          logger.New(logger.Config{Output: io.Discard}),
	}
}

func TestProcessMessage_RetriesTransientFailures(t *testing.T) {
	calls := 0
	var lastRetry int
	c := testConsumer(3, func(ctx context.Context, msg Message) error {
		calls++
		lastRetry = msg.GetRetryCount()
		if calls < 3 {
			return NewTransientError("smtp unavailable", errors.New("dial"))
		}
		return nil
	})

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
	if lastRetry != 2 {
		t.Errorf("retry count on last attempt = %d, want 2", lastRetry)
	}
}

func TestProcessMessage_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	c := testConsumer(2, func(ctx context.Context, msg Message) error {
		calls++
		return NewTransientError("still down", nil)
	})

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3 (1 + 2 retries)", calls)
	}
}

func TestProcessMessage_PermanentFailureIsNotRetried(t *testing.T) {
	calls := 0
	c := testConsumer(5, func(ctx context.Context, msg Message) error {
		calls++
		return NewPermanentError("bad payload", nil)
	})

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	if ClassifyError(err) != ErrorTypePermanent {
		t.Errorf("expected the permanent error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}

func TestProcessMessage_MiddlewareOrder(t *testing.T) {
	var order []string
	c := testConsumer(0, func(ctx context.Context, msg Message) error {
		order = append(order, "handler")
		return nil
	})
	for _, name := range []string{"outer", "inner"} {
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatal(err)
	}
	want := []string{"outer", "inner", "handler"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
