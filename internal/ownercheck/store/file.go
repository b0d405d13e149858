package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/sentinel"
)

// FileStore writes one JSON document per account under dir, e.g.
// data/users/123456789.json. Writes go through a temp file and rename so a
// crash never leaves a truncated session behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(accountNumber string) string {
	return filepath.Join(s.dir, accountNumber+".json")
}

func (s *FileStore) Load(_ context.Context, accountNumber string) (*models.SessionState, error) {
	if err := validateKey(accountNumber); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path(accountNumber))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("session %s: %w", accountNumber, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var st models.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", accountNumber, sentinel.ErrInvalidState)
	}
	return &st, nil
}

func (s *FileStore) Save(_ context.Context, accountNumber string, state *models.SessionState) error {
	if err := validateKey(accountNumber); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("session state is required")
	}
	raw, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, accountNumber+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(accountNumber)); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
