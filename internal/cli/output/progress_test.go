package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar_Update(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewProgressBar(buf, "requests")
	bar.SetTotal(200)

	bar.Update(50)

	out := buf.String()
	for _, want := range []string{"requests", " 25%", "(50/200)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestProgressBar_ClampsOverflow(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewProgressBar(buf, "x")
	bar.SetTotal(10)

	bar.Update(20)

	if !strings.Contains(buf.String(), "100%") {
		t.Errorf("output %q should clamp to 100%%", buf.String())
	}
}

func TestProgressBar_Finish(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewProgressBar(buf, "x")
	bar.SetTotal(10)
	bar.Update(3)

	bar.Finish()

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end with a newline")
	}
	if !strings.Contains(out, "(10/10)") {
		t.Errorf("Finish output %q should show completion", out)
	}
}

func TestProgressBar_UnknownTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	bar := NewProgressBar(buf, "sent")

	bar.Update(42)

	if got := buf.String(); got != "\rsent 42" {
		t.Errorf("output = %q, want %q", got, "\rsent 42")
	}
}
