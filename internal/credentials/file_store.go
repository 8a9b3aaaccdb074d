package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/notesphere/notes-gateway/internal/models"
	"gopkg.in/yaml.v3"
)

// FileStore keeps the pair in a YAML file readable only by the current user.
type FileStore struct {
	path string
	lock sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("the credentials file path cannot be empty")
	}
	return &FileStore{path: path}, nil
}

// DefaultFilePath is the credentials file under the user's config directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notesctl", "credentials.yaml"), nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(context.Context) (models.CredentialPair, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.CredentialPair{}, nil
	}
	if err != nil {
		return models.CredentialPair{}, err
	}
	var pair models.CredentialPair
	err = yaml.Unmarshal(raw, &pair)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("cannot parse the credentials file %s: %w", f.path, err)
	}
	return pair, nil
}

func (f *FileStore) Set(_ context.Context, pair models.CredentialPair) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	raw, err := yaml.Marshal(pair)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(f.path), 0700)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	// CreateTemp already uses 0600 but the mode is the point of this file so make it explicit
	err = tmp.Chmod(0600)
	if err == nil {
		_, err = tmp.Write(raw)
	}
	closeErr := tmp.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Clear(context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("FILE STORE", "message", "could not remove the credentials file", "path", f.path, "error", err)
		return err
	}
	return nil
}
