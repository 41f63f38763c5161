// Package blob holds the BlobStorage adapters: a local directory served by
// the API and a Supabase Storage bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrForeignURL is returned when a URL was not produced by the store.
var ErrForeignURL = errors.New("url does not belong to this store")

// LocalStore writes objects under dir and serves them from baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure media dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Put refuses to overwrite: O_EXCL fails when the key already exists.
func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	name, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return s.baseURL + "/" + url.PathEscape(name), nil
}

// Remove treats a missing object as already removed.
func (s *LocalStore) Remove(_ context.Context, key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *LocalStore) KeyFromURL(raw string) (string, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(raw, prefix) {
		return "", ErrForeignURL
	}
	key, err := url.PathUnescape(strings.TrimPrefix(raw, prefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForeignURL, err)
	}
	return cleanKey(key)
}

// cleanKey keeps keys flat so nothing escapes the media directory.
func cleanKey(key string) (string, error) {
	name := path.Base(path.Clean("/" + key))
	if name == "/" || name == "." || name != key {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return name, nil
}
