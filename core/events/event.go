package events

import (
	"sync"

	"contractkit/core/types"
)

// Event represents a structured state change emitted by a contract.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter accepts events raised by a contract method.
type Emitter interface {
	Emit(Event)
}

// Recorder keeps emitted events in order until drained.
type Recorder struct {
	mu     sync.Mutex
	events []types.Event
}

var _ Emitter = (*Recorder)(nil)

func (r *Recorder) Emit(evt Event) {
	if evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, *payload)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Drain returns the recorded events and resets the recorder.
func (r *Recorder) Drain() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}
