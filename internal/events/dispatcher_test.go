package events

import (
	"context"
	"errors"
	"testing"
)

func TestDispatcherInvokesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventRoleChanged, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.SubjectID)
		return errors.New("handler failure must not stop delivery")
	})
	d.Subscribe(EventRoleChanged, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventJobCreated, func(_ context.Context, _ Event) error {
		t.Error("handler for a different event type invoked")
		return nil
	})

	if err := d.Publish(context.Background(), Event{Type: EventRoleChanged, SubjectID: "u1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(got) != 2 || got[0] != "first:u1" || got[1] != "second:u1" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	if err := d.Publish(context.Background(), Event{Type: EventInvoiceIssued}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}
