package overlay

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/overlay-studio/internal/dom"
)

// Owner is the portal owner name of the icon layers.
const Owner = "icon-overlays"

// LayerAttr marks a layer with the id of the icon it draws.
const LayerAttr = "data-overlay-id"

// Defaults applied to missing geometry and appearance.
var (
	DefaultGeometry = struct{ Left, Top, Width, Height, ZIndex string }{
		Left: "0", Top: "0", Width: "100", Height: "100", ZIndex: "1000",
	}
	DefaultAppearance = struct {
		Opacity, Transform, Filter, BorderRadius, BorderWidth, BorderColor, BackgroundColor string
	}{
		Opacity: "1", Transform: "none", Filter: "none",
		BorderRadius: "0", BorderWidth: "0",
		BorderColor: "transparent", BackgroundColor: "transparent",
	}
)

// Mounter is the part of the portal the renderer uses.
type Mounter interface {
	Mount(owner string, nodes ...*html.Node)
	Release(owner string)
}

// EditorState reports whether the editor is open.
type EditorState interface {
	IsEditorOpen() bool
}

// Renderer draws each published set as fixed layers in the portal.
type Renderer struct {
	portal Mounter
	editor EditorState
}

var _ Publisher = (*Renderer)(nil)

// NewRenderer returns a Renderer drawing into portal.
func NewRenderer(portal Mounter, editor EditorState) *Renderer {
	return &Renderer{portal: portal, editor: editor}
}

// Publish replaces the drawn layers with set. An empty set releases the
// renderer's container.
func (r *Renderer) Publish(set Set) {
	if len(set) == 0 {
		r.portal.Release(Owner)
		return
	}
	interactive := r.editor.IsEditorOpen()
	layers := make([]*html.Node, 0, len(set))
	for _, e := range set {
		layers = append(layers, Layer(e, interactive))
	}
	r.portal.Mount(Owner, layers...)
}

// Layer builds the node for one entry.
func Layer(e Entry, interactive bool) *html.Node {
	g, a := e.Geometry, e.Appearance
	pointer := "none"
	if interactive {
		pointer = "auto"
	}

	style := dom.Style{
		{Property: "position", Value: "fixed"},
		{Property: "left", Value: length(g.Left, DefaultGeometry.Left)},
		{Property: "top", Value: length(g.Top, DefaultGeometry.Top)},
		{Property: "width", Value: length(g.Width, DefaultGeometry.Width)},
		{Property: "height", Value: length(g.Height, DefaultGeometry.Height)},
		{Property: "z-index", Value: or(g.ZIndex, DefaultGeometry.ZIndex)},
		{Property: "opacity", Value: or(a.Opacity, DefaultAppearance.Opacity)},
		{Property: "transform", Value: or(a.Transform, DefaultAppearance.Transform)},
		{Property: "filter", Value: or(a.Filter, DefaultAppearance.Filter)},
		{Property: "border-radius", Value: length(a.BorderRadius, DefaultAppearance.BorderRadius)},
		{Property: "border-width", Value: length(a.BorderWidth, DefaultAppearance.BorderWidth)},
		{Property: "border-style", Value: "solid"},
		{Property: "border-color", Value: or(a.BorderColor, DefaultAppearance.BorderColor)},
		{Property: "background-color", Value: or(a.BackgroundColor, DefaultAppearance.BackgroundColor)},
		{Property: "pointer-events", Value: pointer},
	}

	layer := dom.Element("div", LayerAttr, e.ID)
	dom.SetStyle(layer, style)

	img := dom.Element("img", "src", e.Src, "alt", "", "draggable", "false")
	dom.SetStyle(img, dom.Style{
		{Property: "width", Value: "100%"},
		{Property: "height", Value: "100%"},
		{Property: "object-fit", Value: "contain"},
		{Property: "pointer-events", Value: "none"},
	})
	return dom.Append(layer, img)
}

func or(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// length appends px to bare numbers.
func length(v, def string) string {
	v = or(v, def)
	if _, err := strconv.ParseFloat(v, 64); err == nil && v != "0" {
		return v + "px"
	}
	return v
}
