package debug

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func capture(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Enabled()
	SetEnabled(on)
	SetOutput(&buf)
	t.Cleanup(func() {
		SetEnabled(prev)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestLog_DisabledIsSilent(t *testing.T) {
	buf := capture(t, false)
	Log("hidden %d", 1)
	LogTiming("step", time.Millisecond)
	Section("nothing")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLog_Enabled(t *testing.T) {
	buf := capture(t, true)
	Log("frame %d", 7)
	Section("session")
	LogTiming("load", time.Millisecond)
	out := buf.String()
	if !strings.Contains(out, "frame 7") {
		t.Errorf("missing log line: %q", out)
	}
	if !strings.Contains(out, "=== session ===") {
		t.Errorf("missing section header: %q", out)
	}
	if !strings.Contains(out, "load took 1ms") {
		t.Errorf("missing timing line: %q", out)
	}
}

func TestErrorf_AlwaysWrites(t *testing.T) {
	buf := capture(t, false)
	Errorf("fetch failed: %s", "status 500")
	if !strings.Contains(buf.String(), "ERROR fetch failed: status 500") {
		t.Errorf("Errorf output = %q", buf.String())
	}
}
