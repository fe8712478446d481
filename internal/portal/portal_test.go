package portal

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/overlay-studio/internal/dom"
)

func countRoots(d *dom.Document) int {
	n := 0
	d.View(func(root *html.Node) {
		var walk func(*html.Node)
		walk = func(x *html.Node) {
			if x.Type == html.ElementNode && dom.Attr(x, "id") == RootID {
				n++
			}
			for c := x.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
	})
	return n
}

func TestMountCreatesRootLazily(t *testing.T) {
	d := dom.New()
	m := New(d)

	if m.Active() || countRoots(d) != 0 {
		t.Fatal("mount point should not exist before first Mount")
	}

	m.Mount("icons", dom.Element("div", "data-x", "1"))

	if !m.Active() {
		t.Error("expected Active after Mount")
	}
	if countRoots(d) != 1 {
		t.Fatalf("expected exactly one mount point, got %d", countRoots(d))
	}

	d.View(func(root *html.Node) {
		portal := dom.ByID(root, RootID)
		body := dom.Body(root)
		if portal.Parent != body {
			t.Error("mount point should be a child of <body>")
		}
		if body.LastChild != portal {
			t.Error("mount point should be the last child of <body>")
		}
		if z := dom.StyleOf(portal).Get("z-index"); z != MaxZIndex {
			t.Errorf("z-index = %q, want %q", z, MaxZIndex)
		}
	})
}

func TestSingleRootAcrossOwners(t *testing.T) {
	d := dom.New()
	m := New(d)

	m.Mount("icons", dom.Element("div"))
	m.Mount("sections", dom.Element("div"))
	m.Mount("icons", dom.Element("span"))

	if countRoots(d) != 1 {
		t.Fatalf("expected one mount point, got %d", countRoots(d))
	}
	owners := m.Owners()
	if len(owners) != 2 || owners[0] != "icons" || owners[1] != "sections" {
		t.Errorf("owners = %v, want [icons sections]", owners)
	}
	if !strings.Contains(m.HTML(), "<span>") || strings.Contains(m.HTML(), `data-portal-owner="icons"><div>`) {
		t.Errorf("remount should replace owner content, got %s", m.HTML())
	}
}

func TestReleaseTearsDownWhenEmpty(t *testing.T) {
	d := dom.New()
	m := New(d)

	m.Mount("icons", dom.Element("div"))
	m.Mount("sections", dom.Element("div"))

	m.Release("icons")
	if !m.Active() || countRoots(d) != 1 {
		t.Fatal("mount point must survive while another owner has content")
	}

	m.Release("sections")
	if m.Active() {
		t.Error("expected mount point torn down")
	}
	if countRoots(d) != 0 {
		t.Errorf("expected mount point removed from document, got %d", countRoots(d))
	}

	// Releasing again is harmless.
	m.Release("sections")
}

func TestMountWithNoNodesReleases(t *testing.T) {
	d := dom.New()
	m := New(d)

	m.Mount("icons", dom.Element("div"))
	m.Mount("icons")
	if m.Active() {
		t.Error("mounting nothing should release the owner")
	}
}

func TestReusesExistingRoot(t *testing.T) {
	d, err := dom.Parse(strings.NewReader(`<body><div id="` + RootID + `"></div><main></main></body>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := New(d)
	m.Mount("icons", dom.Element("div"))

	if countRoots(d) != 1 {
		t.Fatalf("expected existing mount point to be reused, got %d", countRoots(d))
	}
}

func TestOnChange(t *testing.T) {
	d := dom.New()
	m := New(d)

	var seen []string
	m.OnChange(func(markup string) { seen = append(seen, markup) })

	m.Mount("icons", dom.Element("div"))
	m.Release("icons")

	if len(seen) != 2 {
		t.Fatalf("expected 2 change notifications, got %d", len(seen))
	}
	if !strings.Contains(seen[0], RootID) {
		t.Errorf("first notification should carry the mount point, got %q", seen[0])
	}
	if seen[1] != "" {
		t.Errorf("teardown notification should be empty, got %q", seen[1])
	}
}
