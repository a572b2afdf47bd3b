package deepforest

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// githubAPI is the base URL release metadata is resolved against.
// Overridden in tests.
var githubAPI = "https://api.github.com"

// releaseInfo is the subset of the GitHub release response used to
// resolve the latest prebuilt model
type releaseInfo struct {
	TagName string         `json:"tag_name"`
	HTMLURL string         `json:"html_url"`
	Assets  []releaseAsset `json:"assets"`
}

// releaseAsset is a single downloadable file attached to a release
type releaseAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// UseRelease fetches the latest prebuilt model release and loads it into
// the session.  Downloaded models are cached in the model directory, so
// when the latest release's model file already exists on disk it is
// loaded without downloading again.
func (df *Deepforest) UseRelease() error {

	modelFile, err := resolveRelease(df.Config)

	if err != nil {
		return err
	}

	m, err := ReadModel(modelFile)

	if err != nil {
		return err
	}

	return df.adoptModel(m)
}

// resolveRelease returns the local path of the model file from the
// latest release, downloading it when not already cached
func resolveRelease(cfg *Config) (string, error) {

	rel, err := latestRelease(cfg.Release.Owner, cfg.Release.Repo)

	if err != nil {
		return "", err
	}

	asset, err := modelAsset(rel)

	if err != nil {
		return "", err
	}

	dir, err := cfg.modelDir()

	if err != nil {
		return "", err
	}

	modelFile := filepath.Join(dir, asset.Name)

	// only download when the release's model file is not already cached
	if _, err := os.Stat(modelFile); err != nil {

		log.Printf("downloading model from release %s, see %s",
			rel.TagName, rel.HTMLURL)

		if err := downloadFile(asset.DownloadURL, modelFile); err != nil {
			return "", err
		}

		log.Printf("saved model to %s", modelFile)
	}

	return modelFile, nil
}

// latestRelease fetches the latest release metadata of a GitHub
// repository
func latestRelease(owner, repo string) (*releaseInfo, error) {

	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", githubAPI, owner, repo)

	resp, err := http.Get(url)

	if err != nil {
		return nil, fmt.Errorf("error fetching latest release: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error fetching latest release: status %s",
			resp.Status)
	}

	rel := &releaseInfo{}

	if err := json.NewDecoder(resp.Body).Decode(rel); err != nil {
		return nil, fmt.Errorf("error decoding release response: %w", err)
	}

	return rel, nil
}

// modelAsset returns the first exported model file attached to the
// release
func modelAsset(rel *releaseInfo) (*releaseAsset, error) {

	for i, asset := range rel.Assets {
		if strings.HasSuffix(asset.Name, ".onnx") {
			return &rel.Assets[i], nil
		}
	}

	return nil, fmt.Errorf("release %s has no model asset", rel.TagName)
}

// downloadFile fetches url and writes it to file
func downloadFile(url, file string) error {

	resp, err := http.Get(url)

	if err != nil {
		return fmt.Errorf("error downloading %s: %w", url, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading %s: status %s", url, resp.Status)
	}

	out, err := os.Create(file)

	if err != nil {
		return fmt.Errorf("error creating %s: %w", file, err)
	}

	_, err = io.Copy(out, resp.Body)

	if err != nil {
		// remove the partial download
		out.Close()
		os.Remove(file)
		return fmt.Errorf("error writing %s: %w", file, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("error writing %s: %w", file, err)
	}

	return nil
}
