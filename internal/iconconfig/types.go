package iconconfig

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Value is a CSS length or number kept in the JSON form it arrived in, so a
// posted record reads back byte-for-byte equivalent.
type Value json.RawMessage

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value(strconv.FormatFloat(f, 'f', -1, 64))
}

// String returns a string Value.
func String(s string) Value {
	b, _ := json.Marshal(s)
	return Value(b)
}

// Parse returns a numeric Value when s is a plain number, otherwise a string
// Value. Empty input yields the zero Value.
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return String(s)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(b []byte) error {
	*v = append((*v)[:0], b...)
	return nil
}

// IsZero reports whether v is absent or null.
func (v Value) IsZero() bool {
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// CSS returns v as a CSS token: strings unquoted, numbers as written.
func (v Value) CSS() string {
	if v.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// Float returns v as a number. Numeric strings such as "0.5" are accepted.
func (v Value) Float() (float64, bool) {
	if v.IsZero() {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.CSS()), 64)
	return f, err == nil
}

// Position places an icon.
type Position struct {
	Left   Value `json:"left,omitempty"`
	Top    Value `json:"top,omitempty"`
	ZIndex Value `json:"zIndex,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Size dimensions an icon.
type Size struct {
	Width  Value `json:"width,omitempty"`
	Height Value `json:"height,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Appearance styles an icon.
type Appearance struct {
	Opacity         Value `json:"opacity,omitempty"`
	Transform       Value `json:"transform,omitempty"`
	Filter          Value `json:"filter,omitempty"`
	BorderRadius    Value `json:"borderRadius,omitempty"`
	BorderWidth     Value `json:"borderWidth,omitempty"`
	BorderColor     Value `json:"borderColor,omitempty"`
	BackgroundColor Value `json:"backgroundColor,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Settings groups placement and appearance.
type Settings struct {
	Position   *Position   `json:"position,omitempty"`
	Size       *Size       `json:"size,omitempty"`
	Appearance *Appearance `json:"appearance,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// IconConfig is the persisted record of one icon.
type IconConfig struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName,omitempty"`
	PublicPath string    `json:"publicPath,omitempty"`
	Settings   *Settings `json:"settings,omitempty"`

	// Extra holds fields this package does not model. They are written back
	// unchanged. Each nested settings object keeps its own.
	Extra map[string]json.RawMessage `json:"-"`
}

type (
	positionFields   Position
	sizeFields       Size
	appearanceFields Appearance
	settingsFields   Settings
	iconConfigFields IconConfig
)

var (
	positionKeys   = []string{"left", "top", "zIndex"}
	sizeKeys       = []string{"width", "height"}
	appearanceKeys = []string{"opacity", "transform", "filter", "borderRadius", "borderWidth", "borderColor", "backgroundColor"}
	settingsKeys   = []string{"position", "size", "appearance"}
	iconKeys       = []string{"id", "fileName", "publicPath", "settings"}
)

// unknownFields returns the keys of object b not listed in known, or nil.
func unknownFields(b []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// withExtra marshals fields and adds extra keys the fields did not write.
func withExtra(fields any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(fields)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Position) UnmarshalJSON(b []byte) error {
	var f positionFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := unknownFields(b, positionKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*p = Position(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Position) MarshalJSON() ([]byte, error) {
	return withExtra(positionFields(p), p.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Size) UnmarshalJSON(b []byte) error {
	var f sizeFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := unknownFields(b, sizeKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*s = Size(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Size) MarshalJSON() ([]byte, error) {
	return withExtra(sizeFields(s), s.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Appearance) UnmarshalJSON(b []byte) error {
	var f appearanceFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := unknownFields(b, appearanceKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*a = Appearance(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Appearance) MarshalJSON() ([]byte, error) {
	return withExtra(appearanceFields(a), a.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Settings) UnmarshalJSON(b []byte) error {
	var f settingsFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := unknownFields(b, settingsKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*s = Settings(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	return withExtra(settingsFields(s), s.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *IconConfig) UnmarshalJSON(b []byte) error {
	var f iconConfigFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	extra, err := unknownFields(b, iconKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*c = IconConfig(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c IconConfig) MarshalJSON() ([]byte, error) {
	return withExtra(iconConfigFields(c), c.Extra)
}

// Extras collects the unmodeled fields of a record at every level, so a
// record rebuilt from its modeled fields can get them back.
type Extras struct {
	Icon       map[string]json.RawMessage
	Settings   map[string]json.RawMessage
	Position   map[string]json.RawMessage
	Size       map[string]json.RawMessage
	Appearance map[string]json.RawMessage
}

// Extras returns c's unmodeled fields.
func (c IconConfig) Extras() Extras {
	x := Extras{Icon: c.Extra}
	if s := c.Settings; s != nil {
		x.Settings = s.Extra
		if s.Position != nil {
			x.Position = s.Position.Extra
		}
		if s.Size != nil {
			x.Size = s.Size.Extra
		}
		if s.Appearance != nil {
			x.Appearance = s.Appearance.Extra
		}
	}
	return x
}

// WithExtras returns c carrying x. Nested objects are created as needed.
func (c IconConfig) WithExtras(x Extras) IconConfig {
	c.Extra = x.Icon
	if x.Settings == nil && x.Position == nil && x.Size == nil && x.Appearance == nil {
		return c
	}
	s := Settings{}
	if c.Settings != nil {
		s = *c.Settings
	}
	s.Extra = x.Settings
	if x.Position != nil {
		p := Position{}
		if s.Position != nil {
			p = *s.Position
		}
		p.Extra = x.Position
		s.Position = &p
	}
	if x.Size != nil {
		z := Size{}
		if s.Size != nil {
			z = *s.Size
		}
		z.Extra = x.Size
		s.Size = &z
	}
	if x.Appearance != nil {
		a := Appearance{}
		if s.Appearance != nil {
			a = *s.Appearance
		}
		a.Extra = x.Appearance
		s.Appearance = &a
	}
	c.Settings = &s
	return c
}

// Opacity returns the configured opacity, or 1 when absent or unparseable.
func (c IconConfig) Opacity() float64 {
	if c.Settings == nil || c.Settings.Appearance == nil {
		return 1
	}
	f, ok := c.Settings.Appearance.Opacity.Float()
	if !ok {
		return 1
	}
	return f
}

// Visible reports whether the icon should be drawn. Zero opacity hides an
// icon without deleting it.
func (c IconConfig) Visible() bool {
	return c.Opacity() > 0
}

// Document is the whole persisted configuration file.
type Document struct {
	Icons       map[string]IconConfig `json:"icons"`
	LastUpdated *time.Time            `json:"lastUpdated"`
}

// Empty returns a document with no icons and no timestamp.
func Empty() *Document {
	return &Document{Icons: map[string]IconConfig{}}
}

// IDs returns the icon ids in sorted order.
func (d *Document) IDs() []string {
	ids := make([]string, 0, len(d.Icons))
	for id := range d.Icons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep enough copy for callers that mutate the icon map.
func (d *Document) Clone() *Document {
	out := &Document{Icons: make(map[string]IconConfig, len(d.Icons))}
	for id, c := range d.Icons {
		out.Icons[id] = c
	}
	if d.LastUpdated != nil {
		t := *d.LastUpdated
		out.LastUpdated = &t
	}
	return out
}
