// Package sections draws boundary bands over the page's section containers
// so layout seams are visible while debugging.
package sections

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/overlay-studio/internal/dom"
)

// Attr marks a section container in page markup. Its value is the label.
const Attr = "data-section"

// Owner is the portal owner name of the bands.
const Owner = "section-bands"

// BandAttr marks a rendered band with its section label.
const BandAttr = "data-section-band"

// Section is the measured box of one section container. Top is relative to
// the document, not the viewport.
type Section struct {
	Label  string  `json:"label"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Scanner measures the section containers of the live page.
type Scanner interface {
	Scan(ctx context.Context) ([]Section, error)
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(ctx context.Context) ([]Section, error)

// Scan calls f.
func (f ScannerFunc) Scan(ctx context.Context) ([]Section, error) { return f(ctx) }

// Mounter is the part of the portal the debugger uses.
type Mounter interface {
	Mount(owner string, nodes ...*html.Node)
	Release(owner string)
}

// State of a Debugger.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Debugger toggles the section bands. While active it rescans on every
// scroll and resize event.
type Debugger struct {
	scanner Scanner
	portal  Mounter
	events  dom.EventTarget
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	gen     int
	ctx     context.Context
	removes []func()
	bands   []Section
}

// New returns an inactive Debugger.
func New(scanner Scanner, portal Mounter, events dom.EventTarget, logger *zap.Logger) *Debugger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debugger{
		scanner: scanner,
		portal:  portal,
		events:  events,
		logger:  logger.Named("sections"),
	}
}

// Activate scans, draws the bands and starts listening for scroll and
// resize. It returns the error of the first scan; the debugger stays active
// either way and the next event retries. Activating an active debugger does
// nothing.
func (d *Debugger) Activate(ctx context.Context) error {
	d.mu.Lock()
	if d.state == Active {
		d.mu.Unlock()
		return nil
	}
	d.state = Active
	d.gen++
	d.ctx = ctx
	d.bands = nil
	gen := d.gen
	d.mu.Unlock()

	err := d.rescan(gen)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		return err
	}
	for _, ev := range []string{dom.EventScroll, dom.EventResize} {
		d.removes = append(d.removes, d.events.AddEventListener(ev, d.onEvent))
	}
	return err
}

// Deactivate removes the listeners and the bands. Deactivating an inactive
// debugger does nothing.
func (d *Debugger) Deactivate() {
	d.mu.Lock()
	if d.state == Inactive {
		d.mu.Unlock()
		return
	}
	d.state = Inactive
	d.gen++
	removes := d.removes
	d.removes = nil
	d.bands = nil
	d.ctx = nil
	d.mu.Unlock()

	for _, remove := range removes {
		remove()
	}
	d.portal.Release(Owner)
}

// Toggle flips the state and returns the new one.
func (d *Debugger) Toggle(ctx context.Context) (State, error) {
	if d.State() == Active {
		d.Deactivate()
		return Inactive, nil
	}
	err := d.Activate(ctx)
	return Active, err
}

// State returns the current state.
func (d *Debugger) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Bands returns the sections currently drawn.
func (d *Debugger) Bands() []Section {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Section(nil), d.bands...)
}

func (d *Debugger) onEvent(ev dom.Event) {
	d.mu.Lock()
	gen, active := d.gen, d.state == Active
	d.mu.Unlock()
	if !active {
		return
	}
	if err := d.rescan(gen); err != nil {
		d.logger.Warn("section rescan failed", zap.String("event", ev.Type), zap.Error(err))
	}
}

// rescan measures and redraws unless the debugger was toggled since gen.
func (d *Debugger) rescan(gen int) error {
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	if ctx == nil {
		return nil
	}

	found, err := d.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning sections: %w", err)
	}

	var visible []Section
	for _, s := range found {
		if s.Height > 0 {
			visible = append(visible, s)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen || d.state != Active {
		return nil
	}
	d.bands = visible
	if len(visible) == 0 {
		d.portal.Release(Owner)
		return nil
	}
	nodes := make([]*html.Node, 0, len(visible))
	for i, s := range visible {
		nodes = append(nodes, Band(s, i))
	}
	d.portal.Mount(Owner, nodes...)
	return nil
}

// Band builds the node for one section. Bands always span the full
// viewport width.
func Band(s Section, index int) *html.Node {
	label := s.Label
	if label == "" {
		label = "section-" + strconv.Itoa(index+1)
	}

	band := dom.Element("div", BandAttr, label)
	dom.SetStyle(band, dom.Style{
		{Property: "position", Value: "absolute"},
		{Property: "left", Value: "0"},
		{Property: "top", Value: px(s.Top)},
		{Property: "width", Value: "100vw"},
		{Property: "height", Value: px(s.Height)},
		{Property: "box-sizing", Value: "border-box"},
		{Property: "border-top", Value: "2px dashed rgba(236, 72, 153, 0.9)"},
		{Property: "background-color", Value: "rgba(236, 72, 153, 0.06)"},
		{Property: "pointer-events", Value: "none"},
	})

	tag := dom.Element("span")
	dom.SetStyle(tag, dom.Style{
		{Property: "position", Value: "absolute"},
		{Property: "top", Value: "0"},
		{Property: "left", Value: "0"},
		{Property: "padding", Value: "2px 6px"},
		{Property: "font", Value: "11px/1.4 monospace"},
		{Property: "color", Value: "#fff"},
		{Property: "background-color", Value: "rgba(236, 72, 153, 0.9)"},
	})
	dom.Append(tag, dom.Text(fmt.Sprintf("%s (%s)", label, px(s.Height))))
	return dom.Append(band, tag)
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
