package editor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/overlay-studio/internal/admin"
	"github.com/ziadkadry99/overlay-studio/internal/assets"
	"github.com/ziadkadry99/overlay-studio/internal/iconconfig"
	"github.com/ziadkadry99/overlay-studio/internal/overlay"
	"github.com/ziadkadry99/overlay-studio/internal/registry"
	"github.com/ziadkadry99/overlay-studio/internal/sections"
)

const secret = "let-me-in"

type navigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *navigator) Navigate(_ context.Context, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
	return nil
}

func (n *navigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.urls...)
}

type harness struct {
	session *Session
	store   *iconconfig.Store
	srv     *httptest.Server
	nav     *navigator

	mu     sync.Mutex
	mirror []string
}

func (h *harness) markup() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.mirror) == 0 {
		return ""
	}
	return h.mirror[len(h.mirror)-1]
}

func newHarness(t *testing.T, handler func(http.Handler) http.Handler) *harness {
	t.Helper()
	return newHarnessWithDelay(t, handler, time.Hour)
}

func newHarnessWithDelay(t *testing.T, handler func(http.Handler) http.Handler, delay time.Duration) *harness {
	t.Helper()
	dir := t.TempDir()
	store := iconconfig.NewStore(filepath.Join(dir, "icon-config.json"))
	files := assets.NewStore(dir, "icons", nil)

	r := chi.NewRouter()
	iconconfig.RegisterRoutes(r, store, iconconfig.Deps{Assets: files})
	assets.RegisterRoutes(r, files, nil, nil)

	var h http.Handler = r
	if handler != nil {
		h = handler(r)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	hs := &harness{store: store, srv: srv, nav: &navigator{}}
	hs.session = New(iconconfig.NewClient(srv.URL), Options{
		Interval:  time.Hour,
		Admin:     admin.Options{Secret: secret, Delay: delay, RedirectURL: "/bye"},
		Navigator: hs.nav,
		Scanner: sections.ScannerFunc(func(context.Context) ([]sections.Section, error) {
			return []sections.Section{{Label: "hero", Height: 500}}, nil
		}),
		Mirror: func(markup string) {
			hs.mu.Lock()
			hs.mirror = append(hs.mirror, markup)
			hs.mu.Unlock()
		},
	})
	t.Cleanup(hs.session.Close)
	return hs
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("write did not complete")
		return nil
	}
}

// eventually polls cond until it holds. Registry changes reach the overlay
// loop asynchronously.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func seed(t *testing.T, store *iconconfig.Store, id string, left float64) {
	t.Helper()
	_, err := store.Upsert(context.Background(), iconconfig.IconConfig{
		ID:         id,
		FileName:   id + ".png",
		PublicPath: "/icons/" + id + ".png",
		Settings: &iconconfig.Settings{
			Position: &iconconfig.Position{Left: iconconfig.Number(left), Top: iconconfig.Number(0)},
		},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestStartRendersPersistedIcons(t *testing.T) {
	h := newHarness(t, nil)
	seed(t, h.store, "logo", 10)

	h.session.Start(context.Background())

	if got := h.session.Current().IDs(); len(got) != 1 || got[0] != "logo" {
		t.Fatalf("current = %v, want [logo]", got)
	}
	if !strings.Contains(h.markup(), `data-overlay-id="logo"`) {
		t.Errorf("portal markup not mirrored: %q", h.markup())
	}
	if h.session.Stale() {
		t.Error("Stale() = true after a good fetch")
	}
}

func TestEditsRequireUnlock(t *testing.T) {
	h := newHarness(t, nil)
	seed(t, h.store, "logo", 10)
	h.session.Start(context.Background())

	if _, err := h.session.Place("logo", 1, 1, 0, 0); !errors.Is(err, ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
	if h.session.Unlock("nope") {
		t.Fatal("wrong secret unlocked the editor")
	}
	if !h.session.RedirectPending() {
		t.Error("no redirect scheduled after a wrong secret")
	}
	if !h.session.Unlock(secret) {
		t.Fatal("right secret rejected")
	}
	if !h.session.Registry().IsEditorOpen() {
		t.Error("editor not open after unlock")
	}
	if h.session.RedirectPending() {
		t.Error("redirect still pending after the right secret")
	}
}

func TestRejectedSecretNavigatesAway(t *testing.T) {
	h := newHarnessWithDelay(t, nil, 20*time.Millisecond)
	h.session.Start(context.Background())

	if h.session.Unlock("nope") {
		t.Fatal("wrong secret unlocked the editor")
	}
	if len(h.nav.visited()) != 0 {
		t.Error("navigated before the delay")
	}
	eventually(t, "redirect", func() bool { return len(h.nav.visited()) == 1 })
	if got := h.nav.visited()[0]; got != "/bye" {
		t.Errorf("redirected to %q, want /bye", got)
	}
	if h.session.Unlocked() {
		t.Error("editor unlocked after a rejected secret")
	}
}

func TestPlaceWritesThrough(t *testing.T) {
	h := newHarness(t, nil)
	seed(t, h.store, "logo", 10)
	h.session.Start(context.Background())
	h.session.Unlock(secret)

	done, err := h.session.Place("logo", 300, 40, 64, 0)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := wait(t, done); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, _ := h.store.Load(context.Background())
	pos := doc.Icons["logo"].Settings.Position
	if pos.Left.CSS() != "300" || pos.Top.CSS() != "40" {
		t.Errorf("persisted position = %s,%s, want 300,40", pos.Left.CSS(), pos.Top.CSS())
	}
	if doc.Icons["logo"].FileName != "logo.png" {
		t.Errorf("fileName lost: %+v", doc.Icons["logo"])
	}

	el, _ := h.session.Registry().Get("logo")
	if !el.IsSaved {
		t.Error("element not marked saved after a successful write")
	}
	eventually(t, "registry entry drawn", func() bool {
		e, ok := h.session.Current().Lookup("logo")
		return ok && e.Source == overlay.SourceRegistry && e.Geometry.Left == "300"
	})
}

func TestEditUnknownIcon(t *testing.T) {
	h := newHarness(t, nil)
	h.session.Start(context.Background())
	h.session.Unlock(secret)

	if _, err := h.session.Hide("ghost"); !errors.Is(err, ErrUnknownIcon) {
		t.Errorf("err = %v, want ErrUnknownIcon", err)
	}
}

func TestHideKeepsRecord(t *testing.T) {
	h := newHarness(t, nil)
	seed(t, h.store, "logo", 10)
	h.session.Start(context.Background())
	h.session.Unlock(secret)

	done, _ := h.session.Hide("logo")
	if err := wait(t, done); err != nil {
		t.Fatalf("save: %v", err)
	}

	eventually(t, "icon hidden", func() bool {
		_, ok := h.session.Current().Lookup("logo")
		return !ok
	})
	doc, _ := h.store.Load(context.Background())
	if _, ok := doc.Icons["logo"]; !ok {
		t.Error("hidden icon deleted from config")
	}
}

func TestSaveFailureLeavesUnsaved(t *testing.T) {
	failPosts := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && r.URL.Path == "/icon-config" {
				http.Error(w, `{"error":"disk full"}`, http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	h := newHarness(t, failPosts)
	seed(t, h.store, "logo", 10)
	h.session.Start(context.Background())
	h.session.Unlock(secret)

	done, err := h.session.Place("logo", 99, 99, 0, 0)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := wait(t, done); !iconconfig.IsTransient(err) {
		t.Fatalf("err = %v, want a transient failure", err)
	}

	select {
	case se := <-h.session.Errors():
		if se.ID != "logo" {
			t.Errorf("SaveError.ID = %q, want logo", se.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no SaveError reported")
	}

	el, _ := h.session.Registry().Get("logo")
	if el.IsSaved {
		t.Error("element marked saved after a failed write")
	}
}

func TestUploadAndRemove(t *testing.T) {
	h := newHarness(t, nil)
	h.session.Start(context.Background())
	h.session.Unlock(secret)

	id, done, err := h.session.Upload(context.Background(), "Brand Star.svg", strings.NewReader("<svg/>"),
		registry.Geometry{Left: "20", Top: "20", Width: "48", Height: "48"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(id, "brand-star-") {
		t.Errorf("id = %q, want brand-star- prefix", id)
	}
	if err := wait(t, done); err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, _ := h.store.Load(context.Background())
	cfg, ok := doc.Icons[id]
	if !ok || cfg.PublicPath != "/icons/Brand Star.svg" {
		t.Fatalf("persisted = %+v", cfg)
	}

	done, err = h.session.Remove(id, true)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := wait(t, done); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := h.session.Registry().Get(id); ok {
		t.Error("element still in registry after remove")
	}
	eventually(t, "removed icon undrawn", func() bool {
		_, ok := h.session.Current().Lookup(id)
		return !ok
	})
}

func TestToggleSections(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	state, err := h.session.ToggleSections(ctx)
	if err != nil || state != sections.Active {
		t.Fatalf("toggle = %v, %v", state, err)
	}
	if !strings.Contains(h.markup(), `data-section-band="hero"`) {
		t.Error("section band not mirrored")
	}

	state, _ = h.session.ToggleSections(ctx)
	if state != sections.Inactive {
		t.Errorf("state = %v, want inactive", state)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.session.Start(context.Background())
	h.session.Close()
	h.session.Close()

	if _, err := h.session.Show("x"); err == nil {
		t.Error("edit accepted after Close")
	}
}

func TestNewIconID(t *testing.T) {
	for name, prefix := range map[string]string{
		"Logo.PNG":     "logo-",
		"my icon!.svg": "my-icon-",
		".svg":         "svg-",
		"___.png":      "icon-",
	} {
		if got := NewIconID(name); !strings.HasPrefix(got, prefix) {
			t.Errorf("NewIconID(%q) = %q, want prefix %q", name, got, prefix)
		}
	}
}
