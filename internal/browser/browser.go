// Package browser connects the editor agent to the operator's live page
// through the Chrome DevTools protocol. It measures section containers,
// mirrors the portal markup into the page and relays page events back.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const navigateTimeout = 30 * time.Second

// Options configure Open.
type Options struct {
	// URL is the page to open.
	URL string
	// Headless launches Chrome without a window. Ignored with Remote.
	Headless bool
	// Remote is the DevTools websocket URL of a running Chrome. Empty
	// launches a local one.
	Remote string
	Logger *zap.Logger
}

// Page is one live page under the editor's control.
type Page struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	bindings map[string]func(payload string)
	scripts  []func() error

	// mirrorMu orders portal pushes; markup is the last one pushed.
	mirrorMu sync.Mutex
	markup   string
}

// Open launches or connects to Chrome and navigates to opts.URL.
func Open(ctx context.Context, opts Options) (*Page, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger.Named("browser")

	var controlURL string
	var lnch *launcher.Launcher
	if opts.Remote != "" {
		controlURL = opts.Remote
		log.Info("connecting to remote chrome", zap.String("url", controlURL))
	} else {
		lnch = launcher.New().Headless(opts.Headless)
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		controlURL = u
		log.Info("launched local chrome", zap.Bool("headless", opts.Headless))
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		b.Close()
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	pctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		browser:  b,
		page:     page,
		lnch:     lnch,
		logger:   log,
		ctx:      pctx,
		cancel:   cancel,
		bindings: make(map[string]func(string)),
	}
	go p.listenBindings()

	if opts.URL != "" {
		if err := p.Navigate(ctx, opts.URL); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

// Navigate loads url and waits for the load event. It satisfies the admin
// gate's Navigator.
func (p *Page) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := p.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.page.Context(navCtx).WaitLoad(); err != nil {
		p.logger.Warn("wait load timeout", zap.String("url", url), zap.Error(err))
	}

	// A new document has no portal; put the last one back.
	p.mirrorMu.Lock()
	defer p.mirrorMu.Unlock()
	if p.markup == "" {
		return nil
	}
	return p.evalMirror(p.markup)
}

// Close shuts the page and, when it was launched here, Chrome.
func (p *Page) Close() error {
	p.cancel()

	p.mu.Lock()
	scripts := p.scripts
	p.scripts = nil
	p.mu.Unlock()
	for _, remove := range scripts {
		remove()
	}

	var firstErr error
	if err := p.page.Close(); err != nil {
		firstErr = err
	}
	if err := p.browser.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if p.lnch != nil {
		p.lnch.Cleanup()
	}
	return firstErr
}

// bind exposes a JS function name that forwards its string argument to fn.
// script is a function definition; it runs now and on every new document.
func (p *Page) bind(name string, fn func(payload string), script string) error {
	p.mu.Lock()
	p.bindings[name] = fn
	p.mu.Unlock()

	if err := (proto.RuntimeAddBinding{Name: name}).Call(p.page); err != nil {
		return fmt.Errorf("browser: add binding %s: %w", name, err)
	}
	remove, err := p.page.EvalOnNewDocument("(" + script + ")();")
	if err != nil {
		return fmt.Errorf("browser: install %s script: %w", name, err)
	}
	p.mu.Lock()
	p.scripts = append(p.scripts, remove)
	p.mu.Unlock()

	if _, err := p.page.Context(p.ctx).Eval(script); err != nil {
		return fmt.Errorf("browser: run %s script: %w", name, err)
	}
	return nil
}

// listenBindings dispatches Runtime.bindingCalled events until Close.
func (p *Page) listenBindings() {
	p.page.Context(p.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		p.mu.Lock()
		fn := p.bindings[e.Name]
		p.mu.Unlock()
		if fn != nil {
			fn(e.Payload)
		}
	})()
}
