//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/viper"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // HOME, holds ~/.specify
	ProjectDir string // parent directory for new projects
}

// setupTestEnv points HOME at a temp directory and clears every variable
// that could leak credentials or configuration into the run.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
	}

	t.Setenv("HOME", env.HomeDir)
	t.Setenv("USERPROFILE", env.HomeDir)
	for _, name := range []string{"GH_TOKEN", "GITHUB_TOKEN", "SPECIFY_GITHUB_TOKEN", "SPECIFY_API_BASE", "SPECIFY_TEMPLATE_REPO"} {
		t.Setenv(name, "")
	}
	t.Setenv("GIT_AUTHOR_NAME", "Integration Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "integration@example.com")

	viper.Reset()
	t.Cleanup(viper.Reset)
	return env
}

// templateRelease is a fake GitHub serving one release of a template repo.
type templateRelease struct {
	Server    *httptest.Server
	Repo      string
	Tag       string
	Downloads atomic.Int32
	archive   atomic.Pointer[[]byte]
	// AuthSeen records the last Authorization header on the metadata call.
	AuthSeen atomic.Value
}

// startRelease serves repo's latest release with one asset per agent/script
// pair, all backed by archive.
func startRelease(t *testing.T, repo, tag string, pairs [][2]string, archive []byte) *templateRelease {
	t.Helper()
	rel := &templateRelease{Repo: repo, Tag: tag}
	rel.SetArchive(archive)
	rel.AuthSeen.Store("")

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/"+repo+"/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		rel.AuthSeen.Store(r.Header.Get("Authorization"))
		assets := make([]map[string]any, 0, len(pairs))
		for _, p := range pairs {
			name := "spec-kit-template-" + p[0] + "-" + p[1] + "-" + tag + ".zip"
			assets = append(assets, map[string]any{
				"name":                 name,
				"browser_download_url": rel.Server.URL + "/download/" + name,
				"size":                 len(*rel.archive.Load()),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tag_name":     tag,
			"published_at": "2025-09-04T18:30:00Z",
			"assets":       assets,
		})
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		rel.Downloads.Add(1)
		_, _ = w.Write(*rel.archive.Load())
	})
	rel.Server = httptest.NewServer(mux)
	t.Cleanup(rel.Server.Close)
	return rel
}

// SetArchive replaces the bytes served for every asset.
func (r *templateRelease) SetArchive(b []byte) { r.archive.Store(&b) }

// buildArchive zips files under a single wrapping directory, the way
// release assets are packaged.
func buildArchive(t *testing.T, wrapper string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(wrapper + "/" + name)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
