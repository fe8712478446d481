package overlay

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/registry"
)

// DefaultInterval is how often the reconciler polls the config store.
const DefaultInterval = 5 * time.Second

// Reconcile merges saved registry icons with the persisted document.
// Registry icons claim their id even when hidden, so a config entry never
// resurfaces an icon the session has hidden.
func Reconcile(entries []registry.Entry, doc *iconconfig.Document) Set {
	claimed := make(map[string]bool)
	var out Set

	for _, re := range entries {
		el := re.Element
		if el.Type != registry.TypeIcon || !el.IsSaved {
			continue
		}
		el.ID = re.ID
		claimed[re.ID] = true
		if el.Visible() {
			out = append(out, FromElement(el))
		}
	}

	if doc == nil {
		return out
	}
	for _, id := range doc.IDs() {
		cfg := doc.Icons[id]
		if claimed[id] || !cfg.Visible() {
			continue
		}
		cfg.ID = id
		out = append(out, FromConfig(cfg))
	}
	return out
}

// Fetcher reads the persisted document.
type Fetcher interface {
	Fetch(ctx context.Context) (*iconconfig.Document, error)
}

// Publisher receives every reconciled set.
type Publisher interface {
	Publish(Set)
}

// Notifier delivers a value whenever the persisted document may have
// changed. The channel closes when ctx is done.
type Notifier interface {
	Notify(ctx context.Context) <-chan struct{}
}

// Registry is the source of session state and change signals.
type Registry interface {
	List() []registry.Entry
	Subscribe() (<-chan struct{}, func())
}

// Options tune a Reconciler.
type Options struct {
	Interval time.Duration
	Notifier Notifier
	Logger   *zap.Logger
}

// Reconciler keeps the published set in step with the registry and the
// config store. A failed fetch keeps the last good document and marks the
// display stale until a fetch succeeds.
type Reconciler struct {
	reg      Registry
	fetch    Fetcher
	pub      Publisher
	interval time.Duration
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	doc     *iconconfig.Document
	current Set
	stale   bool
	// issued numbers fetches in start order; applied is the newest one
	// whose outcome was kept.
	issued  uint64
	applied uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler returns a stopped Reconciler.
func NewReconciler(reg Registry, fetch Fetcher, pub Publisher, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Reconciler{
		reg:      reg,
		fetch:    fetch,
		pub:      pub,
		interval: opts.Interval,
		notifier: opts.Notifier,
		logger:   opts.Logger.Named("reconciler"),
		doc:      iconconfig.Empty(),
	}
}

// Start reconciles once and then runs the loop until Stop or ctx ends.
// Calling Start on a running reconciler does nothing.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	changes, unsubscribe := r.reg.Subscribe()
	r.Tick(ctx)

	var pushes <-chan struct{}
	if r.notifier != nil {
		pushes = r.notifier.Notify(ctx)
	}

	go func() {
		defer close(r.done)
		defer unsubscribe()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Tick(ctx)
			case _, ok := <-pushes:
				if !ok {
					pushes = nil
					continue
				}
				r.Tick(ctx)
			case <-changes:
				r.Refresh()
			}
		}
	}()
}

// Tick fetches the document and publishes a fresh set. A fetch that
// finishes after a later-started one has been applied is discarded.
func (r *Reconciler) Tick(ctx context.Context) {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.mu.Unlock()

	doc, err := r.fetch.Fetch(ctx)

	r.mu.Lock()
	if seq < r.applied {
		r.mu.Unlock()
		r.logger.Debug("discarding out-of-order fetch", zap.Uint64("seq", seq))
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			r.mu.Unlock()
			return
		}
		if !r.stale {
			r.logger.Warn("config fetch failed, keeping last known overlays", zap.Error(err))
		} else {
			r.logger.Debug("config fetch still failing", zap.Error(err))
		}
		r.stale = true
		r.applied = seq
	} else {
		if r.stale {
			r.logger.Info("config fetch recovered")
		}
		r.doc = doc
		r.stale = false
		r.applied = seq
	}
	r.publishLocked()
	r.mu.Unlock()
}

// Refresh re-derives the set from the registry and the cached document
// without fetching.
func (r *Reconciler) Refresh() {
	r.mu.Lock()
	r.publishLocked()
	r.mu.Unlock()
}

func (r *Reconciler) publishLocked() {
	set := Reconcile(r.reg.List(), r.doc)
	r.current = set
	r.pub.Publish(set)
}

// Stop ends the loop and waits for it to exit. It is safe to call more
// than once.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Current returns the last published set.
func (r *Reconciler) Current() Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(Set(nil), r.current...)
}

// Document returns the last successfully fetched document.
func (r *Reconciler) Document() *iconconfig.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Clone()
}

// Stale reports whether the last fetch failed.
func (r *Reconciler) Stale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale
}
