package events

import (
	"context"
	"testing"

	"homepro_backend/platform/logger"

	"github.com/google/uuid"
)

// The composition roots build the bus through this package's re-exports, so
// construction and dispatch must work end to end with the domain event types.
func TestNewInMemoryBusDispatchesDomainEvents(t *testing.T) {
	var bus Bus = NewInMemoryBus(logger.New("development"))

	var received []string
	bus.Subscribe(LeadCreated{}.EventName(), HandlerFunc(func(_ context.Context, e Event) error {
		received = append(received, e.EventName())
		return nil
	}))

	event := LeadCreated{
		BaseEvent: NewBaseEvent(),
		LeadID:    uuid.New(),
		ServiceID: uuid.New(),
		LeadScore: 50,
	}
	if err := bus.PublishSync(context.Background(), event); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	if len(received) != 1 || received[0] != "leads.created" {
		t.Fatalf("received = %v, want exactly one leads.created", received)
	}
	if event.OccurredAt().IsZero() {
		t.Fatal("base event timestamp not set")
	}
}
