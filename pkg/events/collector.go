package events

// EventCollector is embedded in aggregates to hold the events raised by
// state transitions until they are published.
type EventCollector struct {
	pending []DomainEvent
}

// Record queues evts for publication.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// Events returns the queued events and keeps them queued.
func (c *EventCollector) Events() []DomainEvent { return c.pending }

// HasEvents reports whether any event is queued.
func (c *EventCollector) HasEvents() bool { return len(c.pending) > 0 }

// ClearEvents hands over the queued events and empties the queue.
func (c *EventCollector) ClearEvents() []DomainEvent {
	out := c.pending
	c.pending = nil
	return out
}
