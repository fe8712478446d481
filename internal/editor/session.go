// Package editor runs one editing session: the registry, the overlay loop,
// the section debugger and the admin gate, wired to the config and asset
// stores.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/dom"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/overlay"
	"github.com/ziadkadry99/overlay-studio/internal/portal"
	"github.com/ziadkadry99/overlay-studio/internal/registry"
	"github.com/ziadkadry99/overlay-studio/internal/sections"
)

var (
	// ErrLocked is returned for edits before the admin gate was passed.
	ErrLocked = errors.New("editor is locked")
	// ErrUnknownIcon is returned for edits to an id nobody knows.
	ErrUnknownIcon = errors.New("unknown icon")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("editor session closed")
)

// SaveError reports a write-through that did not persist. The element
// stays unsaved; retrying the edit is the remedy.
type SaveError struct {
	ID  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("icon %s not saved: %v", e.ID, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Options configure a Session.
type Options struct {
	Interval  time.Duration
	Admin     admin.Options
	Scanner   sections.Scanner
	Navigator admin.Navigator
	Notifier  overlay.Notifier
	// Mirror receives the portal markup after every change.
	Mirror func(markup string)
	Logger *zap.Logger
}

// Session is one page session of the editor.
type Session struct {
	client *iconconfig.Client
	logger *zap.Logger

	reg        *registry.Registry
	doc        *dom.Document
	window     *dom.Window
	portal     *portal.Manager
	renderer   *overlay.Renderer
	reconciler *overlay.Reconciler
	debugger   *sections.Debugger
	gate       *admin.Gate
	writer     *iconconfig.Writer

	errs chan SaveError
	wg   sync.WaitGroup

	mu     sync.Mutex
	ctx    context.Context
	revs   map[string]uint64
	closed bool
}

// New wires a session against the stores behind client. Nothing runs until
// Start.
func New(client *iconconfig.Client, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scanner == nil {
		opts.Scanner = sections.ScannerFunc(func(context.Context) ([]sections.Section, error) { return nil, nil })
	}

	s := &Session{
		client: client,
		logger: opts.Logger.Named("editor"),
		reg:    registry.New(),
		doc:    dom.New(),
		window: dom.NewWindow(),
		writer: iconconfig.NewWriter(client),
		errs:   make(chan SaveError, 16),
		revs:   make(map[string]uint64),
		ctx:    context.Background(),
	}

	s.portal = portal.New(s.doc)
	if opts.Mirror != nil {
		s.portal.OnChange(opts.Mirror)
	}
	s.renderer = overlay.NewRenderer(s.portal, s.reg)
	s.reconciler = overlay.NewReconciler(s.reg, client, s.renderer, overlay.Options{
		Interval: opts.Interval,
		Notifier: opts.Notifier,
		Logger:   opts.Logger,
	})
	s.debugger = sections.New(opts.Scanner, s.portal, s.window, opts.Logger)

	gateOpts := opts.Admin
	if gateOpts.Navigator == nil {
		gateOpts.Navigator = opts.Navigator
	}
	if gateOpts.Logger == nil {
		gateOpts.Logger = opts.Logger
	}
	s.gate = admin.New(gateOpts)
	return s
}

// Start begins reconciling. The first reconcile happens before Start
// returns.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.reconciler.Start(ctx)
}

// Window is the event target fed by the live page bridge.
func (s *Session) Window() *dom.Window { return s.window }

// Document is the shadow document holding the portal.
func (s *Session) Document() *dom.Document { return s.doc }

// Registry exposes the session's elements.
func (s *Session) Registry() *registry.Registry { return s.reg }

// Current returns the overlays last drawn.
func (s *Session) Current() overlay.Set { return s.reconciler.Current() }

// Stale reports whether the display is based on an outdated read.
func (s *Session) Stale() bool { return s.reconciler.Stale() }

// Errors delivers write-through failures. Failures are dropped when nobody
// reads.
func (s *Session) Errors() <-chan SaveError { return s.errs }

// Unlock opens the editor when secret is right.
func (s *Session) Unlock(secret string) bool {
	if !s.gate.Authenticate(secret) {
		return false
	}
	s.reg.SetEditorOpen(true)
	return true
}

// Lock closes the editor. Overlays stop taking pointer input.
func (s *Session) Lock() {
	s.reg.SetEditorOpen(false)
}

// RedirectPending reports whether a rejected secret is about to navigate
// the page away.
func (s *Session) RedirectPending() bool { return s.gate.RedirectPending() }

// Unlocked reports whether edits are allowed.
func (s *Session) Unlocked() bool {
	return s.gate.Granted() && s.reg.IsEditorOpen()
}

// ToggleSections flips the section debugger.
func (s *Session) ToggleSections(ctx context.Context) (sections.State, error) {
	return s.debugger.Toggle(ctx)
}

// Edit applies fn to the element id and writes it through. An id the
// session has not touched yet is seeded from the persisted document. The
// returned channel yields the outcome of the write.
func (s *Session) Edit(id string, fn func(*registry.Element)) (<-chan error, error) {
	if !s.Unlocked() {
		return nil, ErrLocked
	}

	el, ok := s.reg.Get(id)
	if !ok {
		cfg, found := s.reconciler.Document().Icons[id]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIcon, id)
		}
		el = registry.FromIconConfig(cfg)
	}
	fn(&el)
	el.ID = id
	el.Type = registry.TypeIcon
	el.IsSaved = false
	return s.save(el)
}

// Place moves and resizes id to the given viewport pixels.
func (s *Session) Place(id string, left, top, width, height float64) (<-chan error, error) {
	return s.Edit(id, func(e *registry.Element) {
		e.Geometry.Left = pixels(left)
		e.Geometry.Top = pixels(top)
		if width > 0 {
			e.Geometry.Width = pixels(width)
		}
		if height > 0 {
			e.Geometry.Height = pixels(height)
		}
	})
}

// Hide sets id's opacity to zero. The icon stays in the config.
func (s *Session) Hide(id string) (<-chan error, error) {
	return s.Edit(id, func(e *registry.Element) { e.Appearance.Opacity = "0" })
}

// Show restores full opacity.
func (s *Session) Show(id string) (<-chan error, error) {
	return s.Edit(id, func(e *registry.Element) { e.Appearance.Opacity = "1" })
}

// Upload stores an icon binary and places a new icon for it.
func (s *Session) Upload(ctx context.Context, fileName string, r io.Reader, geometry registry.Geometry) (string, <-chan error, error) {
	if !s.Unlocked() {
		return "", nil, ErrLocked
	}
	res, err := s.client.Upload(ctx, fileName, r, "")
	if err != nil {
		return "", nil, fmt.Errorf("uploading %s: %w", fileName, err)
	}

	id := NewIconID(res.FileName)
	el := registry.Element{
		ID:         id,
		Type:       registry.TypeIcon,
		Geometry:   geometry,
		Appearance: registry.Appearance{Opacity: "1"},
		PublicPath: res.FilePath,
		FileName:   res.FileName,
	}
	done, err := s.save(el)
	return id, done, err
}

// Remove deletes id from the config store, and its file when deleteFile is
// set. The session forgets the element once the delete succeeds.
func (s *Session) Remove(id string, deleteFile bool) (<-chan error, error) {
	if !s.Unlocked() {
		return nil, ErrLocked
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.revs[id]++
	rev := s.revs[id]
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	result := s.writer.Delete(id, deleteFile)
	out := make(chan error, 1)
	go func() {
		defer s.wg.Done()
		err := <-result
		if err == nil || iconconfig.IsNotFound(err) {
			// Refresh the cached document first so the deleted record
			// cannot resurface from it.
			s.reconciler.Tick(ctx)
			if s.latest(id, rev) {
				s.reg.Delete(id)
			}
			err = nil
		} else {
			s.report(id, err)
		}
		out <- err
	}()
	return out, nil
}

// Close stops every loop, waits for pending writes and cancels a pending
// admin redirect.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.reconciler.Stop()
	s.debugger.Deactivate()
	s.gate.Close()
	s.writer.Close()
	s.wg.Wait()
	close(s.errs)
}

func (s *Session) save(el registry.Element) (<-chan error, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.revs[el.ID]++
	rev := s.revs[el.ID]
	s.wg.Add(1)
	s.mu.Unlock()

	s.reg.Set(el.ID, el)
	result := s.writer.Save(el.IconConfig())

	out := make(chan error, 1)
	go func() {
		defer s.wg.Done()
		err := <-result
		if err != nil {
			s.report(el.ID, err)
		} else if s.latest(el.ID, rev) {
			s.reg.Update(el.ID, func(e *registry.Element) { e.IsSaved = true })
		}
		out <- err
	}()
	return out, nil
}

// latest reports whether rev is still the newest edit of id.
func (s *Session) latest(id string, rev uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revs[id] == rev
}

func (s *Session) report(id string, err error) {
	s.logger.Warn("write-through failed", zap.String("icon", id), zap.Error(err))
	select {
	case s.errs <- SaveError{ID: id, Err: err}:
	default:
	}
}

// NewIconID derives a fresh icon id from an uploaded file name.
func NewIconID(fileName string) string {
	base := strings.ToLower(fileName)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "icon"
	}
	return base + "-" + uuid.NewString()[:8]
}

func pixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
