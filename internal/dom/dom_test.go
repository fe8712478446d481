package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestNewHasBody(t *testing.T) {
	d := New()
	d.View(func(root *html.Node) {
		if Body(root) == nil {
			t.Fatal("expected <body> in blank document")
		}
	})
}

func TestParseAndFindAll(t *testing.T) {
	d, err := Parse(strings.NewReader(`<body>
		<section data-section="hero" id="top"></section>
		<div><section data-section="pricing"></section></div>
		<footer></footer>
	</body>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	d.View(func(root *html.Node) {
		got := FindAll(root, "data-section")
		if len(got) != 2 {
			t.Fatalf("expected 2 tagged sections, got %d", len(got))
		}
		if Attr(got[0], "data-section") != "hero" {
			t.Errorf("first section = %q, want hero", Attr(got[0], "data-section"))
		}
		if ByID(root, "top") != got[0] {
			t.Error("ByID(top) did not return the hero section")
		}
		if ByID(root, "missing") != nil {
			t.Error("ByID(missing) should be nil")
		}
	})
}

func TestStyleSetAndParse(t *testing.T) {
	s := Style{}.Set("left", "10px").Set("top", "0").Set("left", "20px")
	if got := s.String(); got != "left: 20px; top: 0" {
		t.Errorf("String() = %q", got)
	}

	parsed := ParseStyle("position: fixed; ; z-index:5;bogus")
	if parsed.Get("position") != "fixed" {
		t.Errorf("position = %q", parsed.Get("position"))
	}
	if parsed.Get("z-index") != "5" {
		t.Errorf("z-index = %q", parsed.Get("z-index"))
	}
	if len(parsed) != 2 {
		t.Errorf("expected 2 declarations, got %d", len(parsed))
	}
}

func TestElementRender(t *testing.T) {
	div := Append(Element("div", "id", "x", "data-k", "v"), Element("img", "src", "/icons/a.png"), Text("hi"))
	out, err := Render(div)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<div id="x" data-k="v"><img src="/icons/a.png"/>hi</div>`
	if out != want {
		t.Errorf("Render = %q, want %q", out, want)
	}
}

func TestWindowListeners(t *testing.T) {
	w := NewWindow()
	var scrolls, resizes int

	removeScroll := w.AddEventListener(EventScroll, func(Event) { scrolls++ })
	w.AddEventListener(EventResize, func(Event) { resizes++ })

	w.Dispatch(Event{Type: EventScroll})
	w.Dispatch(Event{Type: EventResize})
	w.Dispatch(Event{Type: "click"})

	if scrolls != 1 || resizes != 1 {
		t.Fatalf("scrolls=%d resizes=%d, want 1 and 1", scrolls, resizes)
	}

	removeScroll()
	removeScroll()
	w.Dispatch(Event{Type: EventScroll})
	if scrolls != 1 {
		t.Errorf("listener fired after removal")
	}
	if w.ListenerCount(EventScroll) != 0 {
		t.Errorf("expected no scroll listeners, got %d", w.ListenerCount(EventScroll))
	}
	if w.ListenerCount(EventResize) != 1 {
		t.Errorf("expected 1 resize listener, got %d", w.ListenerCount(EventResize))
	}
}
