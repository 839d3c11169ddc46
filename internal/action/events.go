package action

import (
	"time"

	"github.com/malikkrehic/action/internal/pubsub"
)

// Event reports the outcome of one Execute call. It is published as
// pubsub.SucceededEvent or pubsub.FailedEvent on the Manager's event bus.
type Event struct {
	InvocationID string
	Action       string
	// Kind is empty for successful invocations.
	Kind     Kind
	Duration time.Duration
	Error    string
}

func publishOutcome(bus *pubsub.Broker[Event], inv Invocation, err error) {
	if bus == nil {
		return
	}
	ev := Event{
		InvocationID: inv.ID,
		Action:       inv.Action,
		Duration:     time.Since(inv.StartedAt),
	}
	if err != nil {
		ev.Kind = KindOf(err)
		ev.Error = err.Error()
		bus.Publish(pubsub.FailedEvent, ev)
		return
	}
	bus.Publish(pubsub.SucceededEvent, ev)
}
