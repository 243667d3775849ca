package scaffold

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/specify-labs/specify/internal/materialize"
	"github.com/specify-labs/specify/internal/release"
)

type zipFile struct {
	name string
	body string
}

func zipBytes(t *testing.T, files []zipFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("creating %s: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeGitHub serves a latest-release document listing assetNames and the
// same archive body for every asset.
func fakeGitHub(t *testing.T, assetNames []string, archive []byte) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/github/spec-kit/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		assets := make([]map[string]any, 0, len(assetNames))
		for _, name := range assetNames {
			assets = append(assets, map[string]any{
				"name":                 name,
				"browser_download_url": server.URL + "/download/" + name,
				"size":                 len(archive),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name":     "v0.0.80",
			"published_at": "2025-09-04T18:30:00Z",
			"assets":       assets,
		})
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func clientFor(server *httptest.Server) *release.Client {
	return release.New(release.WithHTTPClient(server.Client()), release.WithBaseURL(server.URL))
}

type event struct {
	kind, key, detail string
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) add(kind, key, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind, key, detail})
}

func (r *recorder) Start(key, detail string)    { r.add("start", key, detail) }
func (r *recorder) Complete(key, detail string) { r.add("done", key, detail) }
func (r *recorder) Error(key, detail string)    { r.add("error", key, detail) }
func (r *recorder) Skip(key, detail string)     { r.add("skip", key, detail) }

// final returns the last event kind recorded for key.
func (r *recorder) final(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind := ""
	for _, e := range r.events {
		if e.key == key {
			kind = e.kind
		}
	}
	return kind
}

const claudeSh = "spec-kit-template-claude-sh-v0.0.80.zip"

func templateArchive(t *testing.T) []byte {
	return zipBytes(t, []zipFile{
		{"spec-kit-template-claude-sh/", ""},
		{"spec-kit-template-claude-sh/.specify/scripts/bash/common.sh", "#!/usr/bin/env bash\necho hi\n"},
		{"spec-kit-template-claude-sh/.claude/commands/specify.md", "# specify\n"},
		{"spec-kit-template-claude-sh/.vscode/settings.json", `{"chat.promptFiles": true}`},
		{"spec-kit-template-claude-sh/README.md", "hello\n"},
	})
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%s not cleaned up: %d entries left", dir, len(entries))
	}
}

func TestRun_FreshCreatesProject(t *testing.T) {
	server := fakeGitHub(t, []string{"spec-kit-template-copilot-sh-v0.0.80.zip", claudeSh}, templateArchive(t))
	root := filepath.Join(t.TempDir(), "my-project")
	tmp := t.TempDir()
	rec := &recorder{}

	out, err := Run(context.Background(), Options{
		Root:    root,
		Mode:    materialize.ModeFresh,
		Agent:   "claude",
		Script:  "sh",
		Source:  clientFor(server),
		TempDir: tmp,
	}, rec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if out.Asset == nil || out.Asset.Name != claudeSh {
		t.Errorf("asset = %+v, want %s", out.Asset, claudeSh)
	}
	if out.Extraction.StrippedPrefix != "spec-kit-template-claude-sh/" {
		t.Errorf("StrippedPrefix = %q", out.Extraction.StrippedPrefix)
	}
	for _, rel := range []string{"README.md", ".claude/commands/specify.md", ".specify/scripts/bash/common.sh"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, ".specify/scripts/bash/common.sh"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0111 == 0 {
			t.Errorf("script mode = %v, want executable", info.Mode())
		}
		if out.Permissions.Updated != 1 {
			t.Errorf("Permissions.Updated = %d, want 1", out.Permissions.Updated)
		}
	}

	for _, def := range Steps() {
		if got := rec.final(def.Key); got != "done" {
			t.Errorf("step %s ended as %q, want done", def.Key, got)
		}
	}
	assertEmptyDir(t, tmp)
}

func conflictingArchive(t *testing.T) []byte {
	// "docs" is written as a file, so "docs/guide.md" cannot be created.
	return zipBytes(t, []zipFile{
		{"README.md", "hello\n"},
		{"docs", "not a directory\n"},
		{"docs/guide.md", "guide\n"},
	})
}

func TestRun_FreshRollsBackOnFailure(t *testing.T) {
	server := fakeGitHub(t, []string{claudeSh}, conflictingArchive(t))
	root := filepath.Join(t.TempDir(), "my-project")
	tmp := t.TempDir()
	rec := &recorder{}

	out, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: tmp,
	}, rec)
	if err == nil {
		t.Fatal("expected an error")
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepExtract {
		t.Fatalf("error = %v, want StepError for %s", err, StepExtract)
	}
	if !out.RolledBack {
		t.Error("RolledBack = false")
	}
	if _, statErr := os.Stat(root); !os.IsNotExist(statErr) {
		t.Errorf("root still present after rollback: %v", statErr)
	}
	if rec.final(StepExtract) != "error" {
		t.Errorf("extract step = %q, want error", rec.final(StepExtract))
	}
	if rec.final(StepCleanup) != "done" {
		t.Errorf("cleanup step = %q, want done", rec.final(StepCleanup))
	}
	assertEmptyDir(t, tmp)
}

func TestRun_FreshRollsBackCreatedParents(t *testing.T) {
	server := fakeGitHub(t, []string{claudeSh}, conflictingArchive(t))
	base := t.TempDir()
	root := filepath.Join(base, "a", "b", "my-project")

	out, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !out.RolledBack {
		t.Error("RolledBack = false")
	}
	if _, statErr := os.Stat(filepath.Join(base, "a")); !os.IsNotExist(statErr) {
		t.Errorf("parent created by the run still present: %v", statErr)
	}
	assertEmptyDir(t, base)
}

func TestMissingAncestor(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "exists"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(base, "proj"), filepath.Join(base, "proj")},
		{filepath.Join(base, "a", "b", "proj"), filepath.Join(base, "a")},
		{filepath.Join(base, "exists", "proj"), filepath.Join(base, "exists", "proj")},
		{filepath.Join(base, "exists", "x", "proj"), filepath.Join(base, "exists", "x")},
	}
	for _, tt := range tests {
		if got := missingAncestor(tt.path); got != tt.want {
			t.Errorf("missingAncestor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRun_MergeNeverDeletes(t *testing.T) {
	server := fakeGitHub(t, []string{claudeSh}, conflictingArchive(t))
	root := t.TempDir()
	userFile := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(userFile, []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeMerge, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if out.RolledBack {
		t.Error("merge mode must not roll back")
	}
	data, readErr := os.ReadFile(userFile)
	if readErr != nil || string(data) != "mine" {
		t.Errorf("user file = %q, %v", data, readErr)
	}
	if _, statErr := os.Stat(filepath.Join(root, "README.md")); !os.IsNotExist(statErr) {
		t.Error("project touched although staging failed")
	}
}

func TestRun_MergeOverlaysExistingProject(t *testing.T) {
	server := fakeGitHub(t, []string{claudeSh}, templateArchive(t))
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".vscode"), 0755); err != nil {
		t.Fatal(err)
	}
	settings := filepath.Join(root, ".vscode", "settings.json")
	if err := os.WriteFile(settings, []byte(`{"editor.tabSize": 2}`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeMerge, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, &recorder{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Extraction.Merged != 1 {
		t.Errorf("Merged = %d, want 1", out.Extraction.Merged)
	}
	data, err := os.ReadFile(settings)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"editor.tabSize"`, `"chat.promptFiles"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("merged settings missing %s:\n%s", key, data)
		}
	}
}

func TestRun_AssetNotFound(t *testing.T) {
	server := fakeGitHub(t, []string{"spec-kit-template-copilot-ps-v0.0.80.zip"}, templateArchive(t))
	root := filepath.Join(t.TempDir(), "proj")
	rec := &recorder{}

	_, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, rec)

	var notFound *release.AssetNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want AssetNotFoundError", err)
	}
	if notFound.Pattern != "spec-kit-template-claude-sh" {
		t.Errorf("Pattern = %q", notFound.Pattern)
	}
	if rec.final(StepFetch) != "error" {
		t.Errorf("fetch step = %q, want error", rec.final(StepFetch))
	}
	if _, statErr := os.Stat(root); !os.IsNotExist(statErr) {
		t.Error("root created although nothing was downloaded")
	}
}

func TestRun_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := Run(context.Background(), Options{
		Root: filepath.Join(t.TempDir(), "proj"), Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, nil)

	var rl *release.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want RateLimitError", err)
	}
	if rl.RateLimit.Remaining != "0" {
		t.Errorf("Remaining = %q", rl.RateLimit.Remaining)
	}
}

func TestRun_FreshRejectsExistingRoot(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()
	root := t.TempDir()

	_, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server),
	}, nil)
	if !errors.Is(err, ErrRootExists) {
		t.Fatalf("error = %v, want ErrRootExists", err)
	}
	if called {
		t.Error("network used although the root already exists")
	}
	if _, statErr := os.Stat(root); statErr != nil {
		t.Error("existing root removed")
	}
}

func TestRun_Cancelled(t *testing.T) {
	server := fakeGitHub(t, []string{claudeSh}, templateArchive(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{
		Root: filepath.Join(t.TempDir(), "proj"), Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled in chain", err)
	}
}

type panicReporter struct{}

func (panicReporter) Start(string, string)    { panic("start") }
func (panicReporter) Complete(string, string) { panic("complete") }
func (panicReporter) Error(string, string)    { panic("error") }
func (panicReporter) Skip(string, string)     { panic("skip") }

func TestRun_ReporterPanicsAreIgnored(t *testing.T) {
	server := fakeGitHub(t, []string{claudeSh}, templateArchive(t))
	root := filepath.Join(t.TempDir(), "proj")

	if _, err := Run(context.Background(), Options{
		Root: root, Mode: materialize.ModeFresh, Agent: "claude", Script: "sh",
		Source: clientFor(server), TempDir: t.TempDir(),
	}, panicReporter{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "README.md")); err != nil {
		t.Errorf("README.md missing: %v", err)
	}
}

func TestProgressTo(t *testing.T) {
	t.Run("known size reports each percent once", func(t *testing.T) {
		rec := &recorder{}
		p := progressTo(rec)
		for _, n := range []int64{0, 1, 2, 3, 100, 150, 200} {
			p(n, 200)
		}
		// 0%, 1%, 50%, 75%, 100%
		if len(rec.events) != 5 {
			t.Fatalf("events = %+v, want 5", rec.events)
		}
		if last := rec.events[4]; last.key != StepDownload || !strings.HasPrefix(last.detail, "100%") {
			t.Errorf("last event = %+v", last)
		}
	})

	t.Run("unknown size reports each MiB", func(t *testing.T) {
		rec := &recorder{}
		p := progressTo(rec)
		for _, n := range []int64{8192, 16384, 1 << 20, 1<<20 + 8192, 2 << 20} {
			p(n, -1)
		}
		if len(rec.events) != 3 {
			t.Fatalf("events = %+v, want 3", rec.events)
		}
	})
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{-1, "unknown size"},
		{512, "512 bytes"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestStepsOrder(t *testing.T) {
	var keys []string
	for _, s := range Steps() {
		keys = append(keys, s.Key)
	}
	want := "fetch,download,extract,zip-list,extracted-summary,chmod,cleanup"
	if got := strings.Join(keys, ","); got != want {
		t.Errorf("Steps() = %s, want %s", got, want)
	}
}
