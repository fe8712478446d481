// Package portal manages the editor's single top-level mount point. Every
// editor affordance (icon layers, section bands) renders into an owner
// container inside it, so stacking order never depends on page layout.
package portal

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/overlay-studio/internal/dom"
)

const (
	// RootID is the well-known id of the mount point.
	RootID = "editor-portal-root"

	// MaxZIndex is the largest z-index browsers honour.
	MaxZIndex = "2147483647"

	ownerAttr = "data-portal-owner"
)

// rootStyle anchors the mount point at the document origin with no box of
// its own: fixed children stay viewport-relative, absolute children
// document-relative.
var rootStyle = dom.Style{
	{Property: "position", Value: "absolute"},
	{Property: "top", Value: "0"},
	{Property: "left", Value: "0"},
	{Property: "width", Value: "0"},
	{Property: "height", Value: "0"},
	{Property: "overflow", Value: "visible"},
	{Property: "z-index", Value: MaxZIndex},
	{Property: "pointer-events", Value: "none"},
}

// Manager owns the mount point of one document.
type Manager struct {
	mu     sync.Mutex
	doc    *dom.Document
	hooks  []func(markup string)
	active bool
}

// New returns a Manager for doc. Nothing is created until the first Mount.
func New(doc *dom.Document) *Manager {
	return &Manager{doc: doc}
}

// OnChange registers fn to receive the rendered mount point after every
// mutation. An empty string means the mount point was torn down. Hooks run
// in mutation order with the manager locked and must not call back into it.
func (m *Manager) OnChange(fn func(markup string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Mount replaces the content of owner's container with nodes, creating the
// mount point and the container if needed. Mounting no nodes is the same as
// Release.
func (m *Manager) Mount(owner string, nodes ...*html.Node) {
	if len(nodes) == 0 {
		m.Release(owner)
		return
	}

	m.mu.Lock()
	var markup string
	m.doc.Update(func(root *html.Node) {
		portal := acquireRoot(root)
		container := ownerContainer(portal, owner)
		if container == nil {
			container = dom.Element("div", ownerAttr, owner)
			portal.AppendChild(container)
		}
		dom.Clear(container)
		dom.Append(container, nodes...)
		markup, _ = dom.Render(portal)
	})
	m.active = true
	notify(m.hooks, markup)
	m.mu.Unlock()
}

// Release removes owner's container and tears the mount point down once it
// has no content left.
func (m *Manager) Release(owner string) {
	m.mu.Lock()
	changed := false
	var markup string
	m.doc.Update(func(root *html.Node) {
		portal := dom.ByID(root, RootID)
		if portal == nil {
			return
		}
		if container := ownerContainer(portal, owner); container != nil {
			portal.RemoveChild(container)
			changed = true
		}
		if portal.FirstChild == nil {
			dom.Detach(portal)
			m.active = false
			return
		}
		markup, _ = dom.Render(portal)
	})
	if changed {
		notify(m.hooks, markup)
	}
	m.mu.Unlock()
}

// Active reports whether the mount point currently exists.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Owners returns the owners that currently have a container.
func (m *Manager) Owners() []string {
	var owners []string
	m.doc.View(func(root *html.Node) {
		portal := dom.ByID(root, RootID)
		if portal == nil {
			return
		}
		for _, c := range dom.Children(portal) {
			owners = append(owners, dom.Attr(c, ownerAttr))
		}
	})
	return owners
}

// HTML renders the mount point, or "" when it does not exist.
func (m *Manager) HTML() string {
	var markup string
	m.doc.View(func(root *html.Node) {
		if portal := dom.ByID(root, RootID); portal != nil {
			markup, _ = dom.Render(portal)
		}
	})
	return markup
}

// acquireRoot returns the existing mount point or appends a new one as the
// last child of <body>.
func acquireRoot(root *html.Node) *html.Node {
	if portal := dom.ByID(root, RootID); portal != nil {
		dom.SetStyle(portal, rootStyle)
		return portal
	}
	portal := dom.Element("div", "id", RootID)
	dom.SetStyle(portal, rootStyle)
	body := dom.Body(root)
	if body == nil {
		body = root
	}
	body.AppendChild(portal)
	return portal
}

func ownerContainer(portal *html.Node, owner string) *html.Node {
	for _, c := range dom.Children(portal) {
		if dom.Attr(c, ownerAttr) == owner {
			return c
		}
	}
	return nil
}

func notify(hooks []func(string), markup string) {
	for _, fn := range hooks {
		fn(markup)
	}
}
