package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element creates a detached element node. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		SetAttr(n, attrs[i], attrs[i+1])
	}
	return n
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Append adds children to parent in order and returns parent.
func Append(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			parent.AppendChild(c)
		}
	}
	return parent
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces attribute key.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Style is an ordered list of CSS declarations.
type Style []Decl

// Decl is a single CSS property/value pair.
type Decl struct {
	Property string
	Value    string
}

// Set appends a declaration, or replaces an existing one for the same
// property.
func (s Style) Set(property, value string) Style {
	for i, d := range s {
		if d.Property == property {
			s[i].Value = value
			return s
		}
	}
	return append(s, Decl{Property: property, Value: value})
}

// Get returns the value of property, or "".
func (s Style) Get(property string) string {
	for _, d := range s {
		if d.Property == property {
			return d.Value
		}
	}
	return ""
}

// String renders the style as an inline style attribute value.
func (s Style) String() string {
	parts := make([]string, 0, len(s))
	for _, d := range s {
		parts = append(parts, d.Property+": "+d.Value)
	}
	return strings.Join(parts, "; ")
}

// ParseStyle parses an inline style attribute value.
func ParseStyle(v string) Style {
	var s Style
	for _, part := range strings.Split(v, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		s = s.Set(prop, strings.TrimSpace(val))
	}
	return s
}

// SetStyle replaces the inline style of n.
func SetStyle(n *html.Node, s Style) {
	SetAttr(n, "style", s.String())
}

// StyleOf parses the inline style of n.
func StyleOf(n *html.Node) Style {
	return ParseStyle(Attr(n, "style"))
}
