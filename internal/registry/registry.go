// Package registry holds the elements of one editing session. It is the
// source of truth for the session: reads see every write immediately, and
// subscribers are told when anything changes.
package registry

import (
	"sort"
	"sync"
)

// Store is the registry contract consumers depend on.
type Store interface {
	Get(id string) (Element, bool)
	Set(id string, e Element)
	Delete(id string)
	List() []Entry
	IsEditorOpen() bool
}

// Registry is the in-memory Store. Create one per session with New.
type Registry struct {
	mu         sync.RWMutex
	elements   map[string]Element
	editorOpen bool
	subs       map[int]chan struct{}
	nextSub    int
}

var _ Store = (*Registry)(nil)

// New returns an empty registry with the editor closed.
func New() *Registry {
	return &Registry{
		elements: make(map[string]Element),
		subs:     make(map[int]chan struct{}),
	}
}

// Get returns the element stored under id.
func (r *Registry) Get(id string) (Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.elements[id]
	return e, ok
}

// Set stores e under id. The element's ID is forced to id.
func (r *Registry) Set(id string, e Element) {
	e.ID = id
	r.mu.Lock()
	r.elements[id] = e
	r.notifyLocked()
	r.mu.Unlock()
}

// Update applies fn to the element under id and reports whether it existed.
func (r *Registry) Update(id string, fn func(*Element)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elements[id]
	if !ok {
		return false
	}
	fn(&e)
	e.ID = id
	r.elements[id] = e
	r.notifyLocked()
	return true
}

// Delete removes id. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.elements[id]; !ok {
		return
	}
	delete(r.elements, id)
	r.notifyLocked()
}

// List returns every entry sorted by id.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.elements))
	for id, e := range r.elements {
		out = append(out, Entry{ID: id, Element: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsEditorOpen reports whether overlays should accept pointer input.
func (r *Registry) IsEditorOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.editorOpen
}

// SetEditorOpen opens or closes the editor.
func (r *Registry) SetEditorOpen(open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.editorOpen == open {
		return
	}
	r.editorOpen = open
	r.notifyLocked()
}

// Subscribe returns a channel that receives a value after mutations, and a
// func that unsubscribes. Notifications coalesce: a slow reader sees one
// signal for any number of mutations since its last receive.
func (r *Registry) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

func (r *Registry) notifyLocked() {
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
