package dom

import "sync"

// Event types dispatched by the window.
const (
	EventScroll = "scroll"
	EventResize = "resize"
)

// Event is a window-level notification.
type Event struct {
	Type string
}

// EventTarget accepts listeners. The returned func removes the listener and
// is safe to call more than once.
type EventTarget interface {
	AddEventListener(eventType string, fn func(Event)) (remove func())
}

// Window is an EventTarget fed by Dispatch, typically from the live page
// bridge.
type Window struct {
	mu       sync.Mutex
	next     int
	handlers map[string]map[int]func(Event)
}

// NewWindow returns a window with no listeners.
func NewWindow() *Window {
	return &Window{handlers: make(map[string]map[int]func(Event))}
}

// AddEventListener registers fn for eventType.
func (w *Window) AddEventListener(eventType string, fn func(Event)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.next++
	id := w.next
	if w.handlers[eventType] == nil {
		w.handlers[eventType] = make(map[int]func(Event))
	}
	w.handlers[eventType][id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.handlers[eventType], id)
		if len(w.handlers[eventType]) == 0 {
			delete(w.handlers, eventType)
		}
	}
}

// Dispatch calls every listener registered for ev.Type. Listeners run on the
// caller's goroutine without the window lock held.
func (w *Window) Dispatch(ev Event) {
	w.mu.Lock()
	fns := make([]func(Event), 0, len(w.handlers[ev.Type]))
	for _, fn := range w.handlers[ev.Type] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// ListenerCount returns the number of listeners for eventType.
func (w *Window) ListenerCount(eventType string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.handlers[eventType])
}
