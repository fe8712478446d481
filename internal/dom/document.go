// Package dom holds the editor agent's shadow document: an x/net/html node
// tree that mirrors the parts of the live page the editor owns, plus a
// window-level event target for scroll and resize notifications.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const blankPage = `<!DOCTYPE html><html><head></head><body></body></html>`

// Document is a mutex-guarded HTML tree. All reads and writes of nodes that
// belong to the tree must happen inside View or Update.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// New returns an empty document with <html>, <head> and <body>.
func New() *Document {
	d, err := Parse(strings.NewReader(blankPage))
	if err != nil {
		panic(fmt.Sprintf("dom: parsing blank page: %v", err))
	}
	return d
}

// Parse builds a document from HTML markup.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Document{root: root}, nil
}

// View runs fn with a read lock held.
func (d *Document) View(fn func(root *html.Node)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.root)
}

// Update runs fn with the write lock held.
func (d *Document) Update(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// String renders the whole document.
func (d *Document) String() string {
	var out string
	d.View(func(root *html.Node) {
		out, _ = Render(root)
	})
	return out
}

// Body returns the <body> element under root, or nil.
func Body(root *html.Node) *html.Node {
	return Find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// ByID returns the first element under root whose id attribute equals id.
func ByID(root *html.Node, id string) *html.Node {
	return Find(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == id
	})
}

// Find returns the first node in document order for which match is true.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := Find(c, match); n != nil {
			return n
		}
	}
	return nil
}

// FindAll returns every element under root that carries attribute key.
func FindAll(root *html.Node, key string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && HasAttr(n, key) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Detach removes n from its parent, if it has one.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Clear removes every child of n.
func Clear(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Render serialises n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("rendering node: %w", err)
	}
	return buf.String(), nil
}
