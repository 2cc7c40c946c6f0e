package events

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (gateway, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// lets components expose events without requiring every caller to subscribe.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder accumulates emitted events in order. Callers that need the events
// produced by a single operation (for responses or tests) can swap one in.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}

// Drain returns the recorded events and clears the recorder.
func (r *Recorder) Drain() []Event {
	if r == nil {
		return nil
	}
	out := r.Events
	r.Events = nil
	return out
}
