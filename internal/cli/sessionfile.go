package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// SessionFile persists the signed-in session between CLI invocations.
type SessionFile struct {
	Path string
}

// DefaultSessionPath is <user config dir>/placesctl/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "placesctl", "session.json"), nil
}

// Load returns nil, nil when no session has been saved.
func (f SessionFile) Load() (*models.Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil || s.AccessToken == "" {
		// A corrupt file is treated as signed out.
		return nil, nil
	}
	return &s, nil
}

// Save writes s, or removes the file when s is nil.
func (f SessionFile) Save(s *models.Session) error {
	if s == nil {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing session: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return os.Rename(tmp, f.Path)
}
