package registry

import (
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
)

// Type tags the kind of element.
type Type string

// TypeIcon is the only type the overlay machinery acts on.
const TypeIcon Type = "icon"

// Geometry places an element. Values are CSS tokens; bare numbers mean
// pixels.
type Geometry struct {
	Left   string
	Top    string
	Width  string
	Height string
	ZIndex string
}

// Appearance styles an element.
type Appearance struct {
	Opacity         string
	Transform       string
	Filter          string
	BorderRadius    string
	BorderWidth     string
	BorderColor     string
	BackgroundColor string
}

// Element is the session-scoped descriptor of one editable item.
type Element struct {
	ID         string
	Type       Type
	Geometry   Geometry
	Appearance Appearance
	Src        string
	PublicPath string
	FileName   string

	// Extras are persisted fields the element does not model. They ride
	// along so an edit writes them back.
	Extras iconconfig.Extras

	// IsSaved is true only after the latest write-through succeeded.
	IsSaved bool
}

// Entry pairs an id with its element.
type Entry struct {
	ID      string
	Element Element
}

// Opacity returns the element's opacity, 1 when unset or unparseable.
func (e Element) Opacity() float64 {
	f, ok := iconconfig.Parse(e.Appearance.Opacity).Float()
	if !ok {
		return 1
	}
	return f
}

// Visible reports whether the element should be drawn.
func (e Element) Visible() bool {
	return e.Opacity() > 0
}

// IconConfig derives the persisted record for e.
func (e Element) IconConfig() iconconfig.IconConfig {
	g, a := e.Geometry, e.Appearance
	return iconconfig.IconConfig{
		ID:         e.ID,
		FileName:   e.FileName,
		PublicPath: e.PublicPath,
		Settings: &iconconfig.Settings{
			Position: &iconconfig.Position{
				Left:   iconconfig.Parse(g.Left),
				Top:    iconconfig.Parse(g.Top),
				ZIndex: iconconfig.Parse(g.ZIndex),
			},
			Size: &iconconfig.Size{
				Width:  iconconfig.Parse(g.Width),
				Height: iconconfig.Parse(g.Height),
			},
			Appearance: &iconconfig.Appearance{
				Opacity:         iconconfig.Parse(a.Opacity),
				Transform:       iconconfig.Parse(a.Transform),
				Filter:          iconconfig.Parse(a.Filter),
				BorderRadius:    iconconfig.Parse(a.BorderRadius),
				BorderWidth:     iconconfig.Parse(a.BorderWidth),
				BorderColor:     iconconfig.Parse(a.BorderColor),
				BackgroundColor: iconconfig.Parse(a.BackgroundColor),
			},
		},
	}.WithExtras(e.Extras)
}

// FromIconConfig builds a saved icon element from a persisted record.
func FromIconConfig(c iconconfig.IconConfig) Element {
	e := Element{
		ID:         c.ID,
		Type:       TypeIcon,
		PublicPath: c.PublicPath,
		FileName:   c.FileName,
		Extras:     c.Extras(),
		IsSaved:    true,
	}
	if c.Settings == nil {
		return e
	}
	if p := c.Settings.Position; p != nil {
		e.Geometry.Left, e.Geometry.Top, e.Geometry.ZIndex = p.Left.CSS(), p.Top.CSS(), p.ZIndex.CSS()
	}
	if s := c.Settings.Size; s != nil {
		e.Geometry.Width, e.Geometry.Height = s.Width.CSS(), s.Height.CSS()
	}
	if a := c.Settings.Appearance; a != nil {
		e.Appearance = Appearance{
			Opacity:         a.Opacity.CSS(),
			Transform:       a.Transform.CSS(),
			Filter:          a.Filter.CSS(),
			BorderRadius:    a.BorderRadius.CSS(),
			BorderWidth:     a.BorderWidth.CSS(),
			BorderColor:     a.BorderColor.CSS(),
			BackgroundColor: a.BackgroundColor.CSS(),
		}
	}
	return e
}
