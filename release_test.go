package deepforest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// newReleaseServer returns a test server that serves latest release
// metadata for owner/repo with a single model asset, counting asset
// downloads in downloads
func newReleaseServer(t *testing.T, owner, repo string, downloads *int) *httptest.Server {

	t.Helper()

	mux := http.NewServeMux()

	srv := httptest.NewServer(mux)

	metaPath := fmt.Sprintf("/repos/%s/%s/releases/latest", owner, repo)

	mux.HandleFunc(metaPath, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"tag_name": "v0.2.1",
			"html_url": "%s/releases/v0.2.1",
			"assets": [
				{"name": "NOTES.txt", "browser_download_url": "%s/assets/NOTES.txt"},
				{"name": "tree-crowns.onnx", "browser_download_url": "%s/assets/tree-crowns.onnx"}
			]
		}`, srv.URL, srv.URL, srv.URL)
	})

	mux.HandleFunc("/assets/tree-crowns.onnx", func(w http.ResponseWriter, r *http.Request) {
		*downloads++
		fmt.Fprint(w, "model-bytes")
	})

	t.Cleanup(srv.Close)

	return srv
}

func TestResolveRelease(t *testing.T) {

	var downloads int

	srv := newReleaseServer(t, "treecrowns", "deepforest-models", &downloads)

	oldAPI := githubAPI
	githubAPI = srv.URL

	defer func() {
		githubAPI = oldAPI
	}()

	cfg := DefaultConfig()
	cfg.ModelDir = t.TempDir()

	modelFile, err := resolveRelease(&cfg)

	if err != nil {
		t.Fatalf("error resolving release: %v", err)
	}

	expFile := filepath.Join(cfg.ModelDir, "tree-crowns.onnx")

	if modelFile != expFile {
		t.Errorf("model file does not match, got %s, expected %s", modelFile, expFile)
	}

	buf, err := os.ReadFile(modelFile)

	if err != nil {
		t.Fatalf("error reading downloaded model: %v", err)
	}

	if string(buf) != "model-bytes" {
		t.Errorf("downloaded model does not match, got %q", string(buf))
	}

	if downloads != 1 {
		t.Errorf("expected 1 download, got %d", downloads)
	}

	// resolving again must reuse the cached file without downloading
	modelFile, err = resolveRelease(&cfg)

	if err != nil {
		t.Fatalf("error resolving cached release: %v", err)
	}

	if modelFile != expFile {
		t.Errorf("cached model file does not match, got %s, expected %s",
			modelFile, expFile)
	}

	if downloads != 1 {
		t.Errorf("expected cached resolve to skip download, got %d downloads",
			downloads)
	}
}

func TestResolveReleaseNoAsset(t *testing.T) {

	mux := http.NewServeMux()

	mux.HandleFunc("/repos/treecrowns/deepforest-models/releases/latest",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"tag_name": "v0.2.1", "assets": []}`)
		})

	srv := httptest.NewServer(mux)

	defer srv.Close()

	oldAPI := githubAPI
	githubAPI = srv.URL

	defer func() {
		githubAPI = oldAPI
	}()

	cfg := DefaultConfig()
	cfg.ModelDir = t.TempDir()

	if _, err := resolveRelease(&cfg); err == nil {
		t.Errorf("expected error for release without model asset")
	}
}

func TestLatestReleaseStatusError(t *testing.T) {

	srv := httptest.NewServer(http.NotFoundHandler())

	defer srv.Close()

	oldAPI := githubAPI
	githubAPI = srv.URL

	defer func() {
		githubAPI = oldAPI
	}()

	if _, err := latestRelease("treecrowns", "missing"); err == nil {
		t.Errorf("expected error for not found release")
	}
}

func TestModelAsset(t *testing.T) {

	rel := &releaseInfo{
		TagName: "v0.2.1",
		Assets: []releaseAsset{
			{Name: "readme.md", DownloadURL: "http://example.com/readme.md"},
			{Name: "first.onnx", DownloadURL: "http://example.com/first.onnx"},
			{Name: "second.onnx", DownloadURL: "http://example.com/second.onnx"},
		},
	}

	asset, err := modelAsset(rel)

	if err != nil {
		t.Fatalf("error finding model asset: %v", err)
	}

	if asset.Name != "first.onnx" {
		t.Errorf("asset does not match, got %s, expected first.onnx", asset.Name)
	}
}
