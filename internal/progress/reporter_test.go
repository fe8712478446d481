package progress

import (
	"bytes"
	"testing"
)

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("Uploading icons").(*CIReporter); !ok {
		t.Error("expected a CIReporter when CI is set")
	}
}

func TestNewReporterInTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter("Uploading icons").(*TerminalReporter); !ok {
		t.Error("expected a TerminalReporter outside CI")
	}
}

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Description: "Uploading icons", Out: &buf}

	r.Start(2)
	r.Update(1, "logo.svg")
	r.Update(2, "badge.png")
	r.Finish()

	want := "Uploading icons: 2 files\n[1/2] logo.svg\n[2/2] badge.png\nUploading icons: done\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
