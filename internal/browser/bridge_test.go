package browser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ysmood/gson"

	"github.com/ziadkadry99/overlay-studio/internal/portal"
	"github.com/ziadkadry99/overlay-studio/internal/sections"
)

func TestParseSections(t *testing.T) {
	v := gson.NewFrom(`[
		{"label":"hero","top":0,"height":640,"width":1280},
		{"label":"pricing","top":1210.5,"height":0,"width":1280}
	]`)

	want := []sections.Section{
		{Label: "hero", Top: 0, Height: 640, Width: 1280},
		{Label: "pricing", Top: 1210.5, Height: 0, Width: 1280},
	}
	if diff := cmp.Diff(want, parseSections(v)); diff != "" {
		t.Errorf("sections (-want +got):\n%s", diff)
	}
}

func TestParseSectionsEmpty(t *testing.T) {
	if got := parseSections(gson.NewFrom(`[]`)); len(got) != 0 {
		t.Errorf("sections = %v, want none", got)
	}
}

func TestParseEdit(t *testing.T) {
	e, err := parseEdit(`{"id":"logo","left":12,"top":40,"width":64,"height":32}`)
	if err != nil {
		t.Fatalf("parseEdit: %v", err)
	}
	if e != (Edit{ID: "logo", Left: 12, Top: 40, Width: 64, Height: 32}) {
		t.Errorf("edit = %+v", e)
	}

	if _, err := parseEdit(`{"left":1}`); err == nil {
		t.Error("expected an error for an edit without id")
	}
	if _, err := parseEdit(`not json`); err == nil {
		t.Error("expected an error for malformed payload")
	}
}

func TestScriptsTakeNamesAsArguments(t *testing.T) {
	for name, script := range map[string]string{"scan": scanScript, "mirror": mirrorScript} {
		if strings.Contains(script, portal.RootID) || strings.Contains(script, sections.Attr) {
			t.Errorf("%s script hardcodes a name that Go passes in", name)
		}
	}
}
