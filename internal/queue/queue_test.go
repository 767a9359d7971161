package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	evt := AuditEvent{ID: "abc", UserID: 7, Action: "check_in", Reason: "outside_area"}
	if err := q.Publish(ctx, evt); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	select {
	case got := <-msgs:
		if got.ID != evt.ID || got.UserID != evt.UserID || got.Reason != evt.Reason {
			t.Errorf("got %+v, want %+v", got, evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(ctx, AuditEvent{}); err == nil {
		t.Error("expected error publishing to full queue with cancelled context")
	}
}
