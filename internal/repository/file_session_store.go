package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ai-spm/internal/domain"
)

// FileSessionStore persiste el registro como un archivo JSON.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Path() string {
	return s.path
}

func (s *FileSessionStore) Load(_ context.Context) (domain.User, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.User{}, ErrRecordNotFound
		}
		return domain.User{}, fmt.Errorf("read session file: %w", err)
	}
	return decodeUser(raw)
}

// Save escribe en un archivo temporal y lo renombra, nunca deja un registro a medias.
func (s *FileSessionStore) Save(_ context.Context, user domain.User) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
