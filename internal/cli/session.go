package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// sessionFile keeps the session cookie between invocations.
type sessionFile struct {
	path string
}

type savedSession struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
}

func openSessionFile(path string) (*sessionFile, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "task-sync", "session.json")
	}
	return &sessionFile{path: path}, nil
}

// Load returns the token saved for serverURL.
func (f *sessionFile) Load(serverURL string) (string, bool) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	var s savedSession
	if err := json.Unmarshal(b, &s); err != nil || s.ServerURL != serverURL || s.Token == "" {
		return "", false
	}
	return s.Token, true
}

func (f *sessionFile) Save(serverURL, token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	b, err := json.Marshal(savedSession{ServerURL: serverURL, Token: token})
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, b, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *sessionFile) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
