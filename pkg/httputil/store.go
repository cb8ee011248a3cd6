package httputil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/watanaberin/retro-bio/pkg/observability"
)

// Store rehosts remote resources as local files. A resource is fetched over
// the network at most once; subsequent lookups are served from disk. This lets
// components that depend on a fetched payload (the display font, for example)
// work without network access after the first run.
//
// Filenames are derived from a SHA-256 hash of the source URL, so arbitrary
// URLs map to safe filesystem names. Writes go through a temporary file and
// rename, so concurrent processes sharing a directory see either the old or
// the complete new content, never a partial file.
type Store struct {
	dir  string
	http *http.Client
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, http: NewHTTPClient()}, nil
}

// Dir returns the absolute path to the store directory.
func (s *Store) Dir() string { return s.dir }

// Fetch returns the bytes of the resource at url, downloading it on first
// access and serving the rehosted copy afterwards.
func (s *Store) Fetch(ctx context.Context, url string) ([]byte, error) {
	path := s.path(url)
	if data, err := os.ReadFile(path); err == nil {
		observability.HTTP().OnCacheHit(ctx, url)
		return data, nil
	}

	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		var fetchErr error
		data, fetchErr = s.download(ctx, url)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	observability.HTTP().OnRequest(ctx, http.MethodGet, req.URL.Host, req.URL.Path)
	resp, err := s.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, req.URL.Host, req.URL.Path, err)
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &RetryableError{Err: fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Store) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:]))
}
