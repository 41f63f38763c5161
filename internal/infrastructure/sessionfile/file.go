// Package sessionfile persists a CLI session as a JSON file in the user's
// config directory.
package sessionfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

type persisted struct {
	Identity *domain.Identity `json:"identity"`
}

// FilePersister satisfies session.Persister.
type FilePersister struct {
	path string
	mu   sync.Mutex
}

func NewFilePersister(path string) (*FilePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return &FilePersister{path: path}, nil
}

// DefaultPath is $XDG_CONFIG_HOME/feedbackctl/session.json or its platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "feedbackctl", "session.json"), nil
}

func (p *FilePersister) Path() string { return p.path }

// Save replaces the file through a rename so a crash never leaves half a file.
func (p *FilePersister) Save(_ context.Context, identity domain.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := json.MarshalIndent(persisted{Identity: &identity}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load returns (nil, nil) for a missing or empty file and an error for
// content that does not decode.
func (p *FilePersister) Load(_ context.Context) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var state persisted
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return state.Identity, nil
}

func (p *FilePersister) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
