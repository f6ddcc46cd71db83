package trace

import "sync"

// Event is a single begin or end call seen by a Recorder.
type Event struct {
	Name  string
	Begin bool
	Depth int
}

// Recorder is a Tracer that keeps every section in memory. It is meant for
// tests and for the replay CLI.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	open   []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// IsTracing always reports true.
func (r *Recorder) IsTracing() bool {
	return true
}

// BeginSection records the start of a section.
func (r *Recorder) BeginSection(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Begin: true, Depth: len(r.open)})
	r.open = append(r.open, name)
}

// EndSection records the end of the innermost open section.
// An unmatched EndSection is recorded with an empty name.
func (r *Recorder) EndSection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.open) == 0 {
		r.events = append(r.events, Event{Depth: -1})
		return
	}
	name := r.open[len(r.open)-1]
	r.open = r.open[:len(r.open)-1]
	r.events = append(r.events, Event{Name: name, Depth: len(r.open)})
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Sections returns the names of sections in the order they were opened.
func (r *Recorder) Sections() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, e := range r.events {
		if e.Begin {
			names = append(names, e.Name)
		}
	}
	return names
}

// Open returns the number of sections that are still open.
func (r *Recorder) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// Balanced reports whether every begin has a matching end and no end was
// seen without a begin.
func (r *Recorder) Balanced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.open) != 0 {
		return false
	}
	for _, e := range r.events {
		if e.Depth < 0 {
			return false
		}
	}
	return true
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.open = nil
}
