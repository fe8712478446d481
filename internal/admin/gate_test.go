package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeNavigator) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return nil
}

func (f *fakeNavigator) visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func TestDefaultSecret(t *testing.T) {
	g := New(Options{})
	defer g.Close()

	if !g.Authenticate(DefaultSecret) {
		t.Fatal("default secret rejected")
	}
	if !g.Granted() {
		t.Error("Granted() = false after a match")
	}
}

func TestConfiguredSecret(t *testing.T) {
	g := New(Options{Secret: "s3cret"})
	defer g.Close()

	if g.Authenticate(DefaultSecret) {
		t.Error("default secret accepted while another is configured")
	}
	if !g.Authenticate("s3cret") {
		t.Error("configured secret rejected")
	}
}

func TestMismatchRedirectsAfterDelay(t *testing.T) {
	nav := &fakeNavigator{}
	var reported error
	g := New(Options{
		Secret:      "right",
		RedirectURL: "/home",
		Delay:       20 * time.Millisecond,
		Navigator:   nav,
		OnError:     func(err error) { reported = err },
	})
	defer g.Close()

	if g.Authenticate("wrong") {
		t.Fatal("wrong secret accepted")
	}
	if !errors.Is(reported, ErrInvalidSecret) {
		t.Errorf("reported = %v, want ErrInvalidSecret", reported)
	}
	if g.Granted() {
		t.Error("Granted() = true after a mismatch")
	}
	if len(nav.visited()) != 0 {
		t.Error("navigated before the delay")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(nav.visited()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no redirect after the delay")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := nav.visited(); got[0] != "/home" {
		t.Errorf("redirected to %q, want /home", got[0])
	}
}

func TestCloseCancelsRedirect(t *testing.T) {
	nav := &fakeNavigator{}
	g := New(Options{Secret: "right", Delay: 20 * time.Millisecond, Navigator: nav})

	g.Authenticate("wrong")
	if !g.RedirectPending() {
		t.Fatal("no redirect scheduled")
	}
	g.Close()

	time.Sleep(60 * time.Millisecond)
	if len(nav.visited()) != 0 {
		t.Errorf("navigated after Close: %v", nav.visited())
	}
}

func TestMatchCancelsPendingRedirect(t *testing.T) {
	nav := &fakeNavigator{}
	g := New(Options{Secret: "right", Delay: 20 * time.Millisecond, Navigator: nav})
	defer g.Close()

	g.Authenticate("wrong")
	g.Authenticate("right")

	time.Sleep(60 * time.Millisecond)
	if len(nav.visited()) != 0 {
		t.Errorf("navigated after a successful retry: %v", nav.visited())
	}
}

func TestMismatchWithoutNavigatorStillSchedules(t *testing.T) {
	g := New(Options{Secret: "right", Delay: 10 * time.Millisecond})
	defer g.Close()

	g.Authenticate("wrong")
	if !g.RedirectPending() {
		t.Fatal("no redirect scheduled without a navigator")
	}

	deadline := time.Now().Add(2 * time.Second)
	for g.RedirectPending() {
		if time.Now().After(deadline) {
			t.Fatal("redirect timer never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
