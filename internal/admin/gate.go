// Package admin gates the editor behind a single shared secret. The gate is
// a deterrent for casual visitors: a wrong secret shows an error and then
// navigates away after a short delay.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSecret is used when no secret is configured.
const DefaultSecret = "overlay-admin"

// DefaultRedirectDelay is the pause between a rejected secret and the
// redirect.
const DefaultRedirectDelay = 2 * time.Second

// DefaultRedirectURL is where a rejected operator is sent.
const DefaultRedirectURL = "/"

// ErrInvalidSecret is reported through OnError on a mismatch.
var ErrInvalidSecret = errors.New("invalid admin secret")

// Navigator moves the operator's page to url.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Options configure a Gate. Zero values fall back to the defaults.
type Options struct {
	Secret      string
	RedirectURL string
	Delay       time.Duration
	Navigator   Navigator
	OnError     func(error)
	Logger      *zap.Logger
}

// Gate compares candidates against the configured secret. Access, once
// granted, lasts until the gate is discarded.
type Gate struct {
	secret   string
	redirect string
	delay    time.Duration
	nav      Navigator
	onError  func(error)
	logger   *zap.Logger

	mu      sync.Mutex
	granted bool
	pending *time.Timer
	closed  bool
}

// WithDefaults fills the zero secret, redirect URL and delay.
func (o Options) WithDefaults() Options {
	if o.Secret == "" {
		o.Secret = DefaultSecret
	}
	if o.RedirectURL == "" {
		o.RedirectURL = DefaultRedirectURL
	}
	if o.Delay <= 0 {
		o.Delay = DefaultRedirectDelay
	}
	return o
}

// Match compares candidate with secret in constant time.
func Match(secret, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(secret)) == 1
}

// New returns a Gate.
func New(opts Options) *Gate {
	opts = opts.WithDefaults()
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Navigator == nil {
		opts.Logger.Warn("admin gate has no navigator; rejected secrets will not redirect")
	}
	return &Gate{
		secret:   opts.Secret,
		redirect: opts.RedirectURL,
		delay:    opts.Delay,
		nav:      opts.Navigator,
		onError:  opts.OnError,
		logger:   opts.Logger.Named("admin"),
	}
}

// Authenticate reports whether candidate matches the secret. A match grants
// access; a mismatch reports ErrInvalidSecret and schedules the redirect.
func (g *Gate) Authenticate(candidate string) bool {
	ok := Match(g.secret, candidate)

	g.mu.Lock()
	defer g.mu.Unlock()

	if ok {
		g.granted = true
		if g.pending != nil {
			g.pending.Stop()
			g.pending = nil
		}
		g.logger.Info("admin access granted")
		return true
	}

	g.logger.Warn("admin secret rejected", zap.Duration("redirect_in", g.delay))
	if g.onError != nil {
		g.onError(ErrInvalidSecret)
	}
	if !g.closed && g.pending == nil {
		g.pending = time.AfterFunc(g.delay, g.navigateAway)
	}
	return false
}

// Granted reports whether a correct secret has been entered.
func (g *Gate) Granted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted
}

// RedirectPending reports whether a redirect is scheduled.
func (g *Gate) RedirectPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Close cancels any pending redirect.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.pending != nil {
		g.pending.Stop()
		g.pending = nil
	}
}

func (g *Gate) navigateAway() {
	g.mu.Lock()
	if g.closed || g.pending == nil {
		g.mu.Unlock()
		return
	}
	g.pending = nil
	nav, url := g.nav, g.redirect
	g.mu.Unlock()

	if nav == nil {
		g.logger.Warn("redirect after rejected secret cannot fire: no navigator", zap.String("url", url))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := nav.Navigate(ctx, url); err != nil {
		g.logger.Warn("redirect after rejected secret failed", zap.String("url", url), zap.Error(err))
	}
}
