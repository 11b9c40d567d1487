package mocks

import (
	"context"
	"sync"

	"github.com/restodash/dashboard-api/internal/queue"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []queue.UserEvent
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, ev queue.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.Err
}

// Types returns the recorded event types in publish order.
func (p *RecordingPublisher) Types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []queue.UserEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.UserEvent(nil), p.events...)
}
