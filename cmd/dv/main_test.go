package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vanderheijden86/depview/internal/datasource"
	"github.com/vanderheijden86/depview/pkg/config"
	"github.com/vanderheijden86/depview/pkg/loader"
	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/testutil"

	json "github.com/goccy/go-json"
)

func TestSplitPaths(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"out.svg", []string{"out.svg"}},
		{"a.svg, b.png", []string{"a.svg", "b.png"}},
		{" ,a.svg,, ", []string{"a.svg"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitPaths(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitPaths(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRepoLabel(t *testing.T) {
	if got := repoLabel("  https://github.com/org/repo ", ""); got != "https://github.com/org/repo" {
		t.Errorf("got %q", got)
	}
	if got := repoLabel("", "/tmp/graphs/deps.json"); got != "deps.json" {
		t.Errorf("payload label = %q", got)
	}
	if got := repoLabel("named", "/tmp/deps.json"); got != "named" {
		t.Errorf("explicit repo should win, got %q", got)
	}
}

func TestLogFilePath(t *testing.T) {
	t.Setenv("DV_LOG_FILE", "/tmp/custom.log")
	if got := logFilePath(); got != "/tmp/custom.log" {
		t.Errorf("got %q", got)
	}

	state := t.TempDir()
	t.Setenv("DV_LOG_FILE", "")
	t.Setenv("XDG_STATE_HOME", state)
	if got := logFilePath(); got != filepath.Join(state, "dv", "dv.log") {
		t.Errorf("got %q", got)
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig()

	src, err := newSource("graph.json", cfg)
	if err != nil {
		t.Fatalf("newSource: %v", err)
	}
	if _, ok := src.(*datasource.FileSource); !ok {
		t.Errorf("payload should use a file source, got %T", src)
	}

	src, err = newSource("", cfg)
	if err != nil {
		t.Fatalf("newSource: %v", err)
	}
	hs, ok := src.(*datasource.HTTPSource)
	if !ok {
		t.Fatalf("expected HTTP source, got %T", src)
	}
	if hs.BaseURL != "http://localhost:5000" || hs.Client.Timeout != cfg.Server.Timeout {
		t.Errorf("source = %s timeout %v", hs.BaseURL, hs.Client.Timeout)
	}

	cfg.Server.BaseURL = ""
	if _, err := newSource("", cfg); err == nil {
		t.Error("expected an error without a server")
	}
}

func TestRunExport_FromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testutil.ScenarioPayload))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	l := loader.New(datasource.NewHTTPSource(srv.URL, srv.Client()), loader.ParseOptions{})
	out := filepath.Join(t.TempDir(), "graph.svg")

	var stdout bytes.Buffer
	if err := runExport(context.Background(), &stdout, l, "repo", cfg, nil, []string{out}, 20); err != nil {
		t.Fatalf("runExport: %v", err)
	}
	if !strings.Contains(stdout.String(), "Wrote "+out) {
		t.Errorf("output = %q", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Dependency Graph for repo") {
		t.Error("export missing the title")
	}
}

func TestRunExport_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := loader.New(datasource.NewHTTPSource(srv.URL, srv.Client()), loader.ParseOptions{})
	out := filepath.Join(t.TempDir(), "graph.svg")
	err := runExport(context.Background(), &bytes.Buffer{}, l, "repo", config.DefaultConfig(), nil, []string{out}, 5)
	if err == nil || !strings.Contains(err.Error(), "No dependency data found") {
		t.Fatalf("expected the no-data error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("nothing should be written without data")
	}
}

func TestPrintMetrics(t *testing.T) {
	metrics.ResetAll()
	defer metrics.ResetAll()
	metrics.FrameRender.Record(2_000_000)

	var buf bytes.Buffer
	if err := printMetrics(&buf); err != nil {
		t.Fatalf("printMetrics: %v", err)
	}
	var stats []metrics.StageStats
	if err := json.Unmarshal(buf.Bytes(), &stats); err != nil {
		t.Fatalf("metrics are not JSON: %v\n%s", err, buf.String())
	}
	if len(stats) != 1 || stats[0].Name != "frame_render" || stats[0].Count != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
