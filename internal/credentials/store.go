package credentials

import (
	"encoding/json"
	"os"

	"github.com/spf13/afero"
)

// Store persists the only state that survives a restart: username and auth
// token. Absence of the token is the sole "logged out" signal on reload.
type Store struct {
	fs   afero.Fs
	path string
}

type persisted struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func NewStore(path string) *Store {
	return &Store{fs: afero.NewOsFs(), path: path}
}

// NewStoreWithFs is used by tests to run against an in-memory filesystem.
func NewStoreWithFs(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load returns the persisted username and token. A missing or unreadable
// file means no credentials, never an error.
func (s *Store) Load() (username, token string) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return "", ""
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return "", ""
	}
	return p.Username, p.Token
}

func (s *Store) Save(username, token string) error {
	data, err := json.Marshal(persisted{Username: username, Token: token})
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path, data, os.FileMode(0o600))
}

func (s *Store) Clear() error {
	err := s.fs.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
