package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/dom"
	"github.com/ziadkadry99/overlay-studio/internal/portal"
	"github.com/ziadkadry99/overlay-studio/internal/sections"
)

const (
	eventBinding = "__studioEvent"
	editBinding  = "__studioEdit"
)

// Scan measures the page's section containers.
func (p *Page) Scan(ctx context.Context) ([]sections.Section, error) {
	res, err := p.page.Context(ctx).Eval(scanScript, sections.Attr, portal.RootID)
	if err != nil {
		return nil, fmt.Errorf("browser: scan sections: %w", err)
	}
	return parseSections(res.Value), nil
}

// Mirror replaces the page's portal root with markup. Empty markup removes
// it.
func (p *Page) Mirror(markup string) error {
	p.mirrorMu.Lock()
	defer p.mirrorMu.Unlock()
	p.markup = markup
	return p.evalMirror(markup)
}

func (p *Page) evalMirror(markup string) error {
	if _, err := p.page.Context(p.ctx).Eval(mirrorScript, markup, portal.RootID); err != nil {
		return fmt.Errorf("browser: mirror portal: %w", err)
	}
	return nil
}

// MirrorFunc returns a portal change hook that mirrors and logs failures.
func (p *Page) MirrorFunc() func(markup string) {
	return func(markup string) {
		if err := p.Mirror(markup); err != nil && p.ctx.Err() == nil {
			p.logger.Warn("portal mirror failed", zap.Error(err))
		}
	}
}

// BridgeEvents dispatches the page's scroll and resize events on win.
func (p *Page) BridgeEvents(win *dom.Window) error {
	return p.bind(eventBinding, func(payload string) {
		switch payload {
		case dom.EventScroll, dom.EventResize:
			win.Dispatch(dom.Event{Type: payload})
		}
	}, eventScript)
}

// Edit is a drag or resize the operator finished on an overlay layer.
// Values are viewport pixels.
type Edit struct {
	ID     string  `json:"id"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OnEdit installs the drag handles and calls fn for every finished edit.
func (p *Page) OnEdit(fn func(Edit)) error {
	return p.bind(editBinding, func(payload string) {
		edit, err := parseEdit(payload)
		if err != nil {
			p.logger.Warn("ignoring malformed edit", zap.String("payload", payload), zap.Error(err))
			return
		}
		fn(edit)
	}, editScript)
}

func parseSections(v gson.JSON) []sections.Section {
	var out []sections.Section
	for _, item := range v.Arr() {
		out = append(out, sections.Section{
			Label:  item.Get("label").Str(),
			Top:    item.Get("top").Num(),
			Height: item.Get("height").Num(),
			Width:  item.Get("width").Num(),
		})
	}
	return out
}

func parseEdit(payload string) (Edit, error) {
	var e Edit
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Edit{}, err
	}
	if e.ID == "" {
		return Edit{}, fmt.Errorf("edit without id")
	}
	return e, nil
}
