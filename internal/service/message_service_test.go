package service_test

import (
	"testing"
	"time"

	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/service"
)

func TestEnqueueDefaults(t *testing.T) {
	q := newMemQueue()
	svc := &service.MessageService{Messages: q}

	msg, err := svc.Enqueue(service.EnqueueInput{
		Channel: "email",
		Payload: map[string]string{"recipient": "a@b.c", "body": "hi"},
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if msg.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", msg.Status)
	}
	if msg.RetryCount != 0 {
		t.Errorf("expected 0 attempts, got %d", msg.RetryCount)
	}
	if msg.MaxRetries != model.DefaultMaxRetries {
		t.Errorf("expected default max retries, got %d", msg.MaxRetries)
	}
}

func TestEnqueueValidation(t *testing.T) {
	q := newMemQueue()
	svc := &service.MessageService{Messages: q}

	if _, err := svc.Enqueue(service.EnqueueInput{}); err == nil {
		t.Error("expected error for missing channel")
	}
	if _, err := svc.Enqueue(service.EnqueueInput{Channel: "email"}); err == nil {
		t.Error("expected error for missing template and body")
	}

	bad := "yesterday"
	_, err := svc.Enqueue(service.EnqueueInput{
		Channel:     "email",
		Payload:     map[string]string{"body": "x"},
		ScheduledAt: &bad,
	})
	if err == nil {
		t.Error("expected error for malformed scheduled_at")
	}
}

func TestEnqueueScheduled(t *testing.T) {
	q := newMemQueue()
	svc := &service.MessageService{Messages: q}

	at := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	msg, err := svc.Enqueue(service.EnqueueInput{
		Channel:     "email",
		Payload:     map[string]string{"body": "x", "recipient": "a@b.c"},
		ScheduledAt: &at,
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if msg.ScheduledAt == nil || !msg.ScheduledAt.After(time.Now()) {
		t.Error("expected a future schedule")
	}

	// A future-scheduled message must not be claimable yet.
	batch, err := q.ClaimDue(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 0 {
		t.Errorf("expected 0 due messages, got %d", len(batch))
	}
}

func TestPastScheduleIsDue(t *testing.T) {
	q := newMemQueue()
	svc := &service.MessageService{Messages: q}

	at := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	msg, err := svc.Enqueue(service.EnqueueInput{
		Channel:     "email",
		Payload:     map[string]string{"body": "x", "recipient": "a@b.c"},
		ScheduledAt: &at,
	})
	if err != nil {
		t.Fatal(err)
	}

	// An elapsed schedule never blocks dispatch again: the message stays due
	// on every check until its status changes.
	batch, err := q.ClaimDue(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 || batch[0].ID != msg.ID {
		t.Fatalf("expected the scheduled message to be due, got %d items", len(batch))
	}

	if err := q.MarkRetrying(msg.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	batch, _ = q.ClaimDue(10)
	if len(batch) != 1 {
		t.Errorf("expected the retrying message to be due again, got %d items", len(batch))
	}
}

func TestQueueStats(t *testing.T) {
	q := newMemQueue()
	svc := &service.MessageService{Messages: q}

	for i := 0; i < 3; i++ {
		if _, err := svc.Enqueue(service.EnqueueInput{
			Channel: "email",
			Payload: map[string]string{"body": "x", "recipient": "a@b.c"},
		}); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := svc.QueueStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats["pending"] != 3 {
		t.Errorf("expected 3 pending, got %v", stats["pending"])
	}
}
