// Package overlay derives the set of icons to draw from the session
// registry and the persisted configuration, and draws it into the portal.
package overlay

import (
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/registry"
)

// Source records where an entry came from.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceConfig   Source = "config"
)

// Entry is one icon ready for rendering.
type Entry struct {
	ID         string
	Source     Source
	Geometry   registry.Geometry
	Appearance registry.Appearance
	Src        string
}

// Set is the effective overlay set: no id appears twice and registry
// entries come first.
type Set []Entry

// IDs returns the ids in order.
func (s Set) IDs() []string {
	ids := make([]string, len(s))
	for i, e := range s {
		ids[i] = e.ID
	}
	return ids
}

// Lookup returns the entry for id.
func (s Set) Lookup(id string) (Entry, bool) {
	for _, e := range s {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// FromElement projects a registry element.
func FromElement(e registry.Element) Entry {
	src := e.Src
	if src == "" {
		src = e.PublicPath
	}
	return Entry{
		ID:         e.ID,
		Source:     SourceRegistry,
		Geometry:   e.Geometry,
		Appearance: e.Appearance,
		Src:        src,
	}
}

// FromConfig projects a persisted record.
func FromConfig(c iconconfig.IconConfig) Entry {
	e := registry.FromIconConfig(c)
	entry := FromElement(e)
	entry.Source = SourceConfig
	return entry
}
