package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// Store persists clients and their portals.
type Store interface {
	Load(ctx context.Context) ([]Client, error)
	Save(ctx context.Context, clients []Client) error
}

// FileStore keeps the portal list in a single JSON file. Writes replace the file
// atomically so a crash never leaves a truncated document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// storedClient accepts the legacy "cliente" and "nombre" keys.
type storedClient struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	LegacyName string         `json:"nombre,omitempty"`
	OldName    string         `json:"cliente,omitempty"`
	Portals    []storedPortal `json:"portals"`
	OldPortals []storedPortal `json:"portales,omitempty"`
}

type storedPortal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LegacyName  string `json:"nombre,omitempty"`
	URL         string `json:"url"`
	Username    string `json:"username"`
	OldUsername string `json:"usuario,omitempty"`
	Password    string `json:"password"`
	OldPassword string `json:"contra,omitempty"`
}

// Load reads the file. A missing file is an empty list. Documents with missing
// ids or legacy keys are normalised and written back.
func (s *FileStore) Load(ctx context.Context) ([]Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Client{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read portals file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Client{}, nil
	}

	var stored []storedClient
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse portals file: %w", err)
	}

	clients, changed := sanitize(stored)
	if changed {
		if err := s.write(clients); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

// Save replaces the file contents.
func (s *FileStore) Save(ctx context.Context, clients []Client) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(clients)
}

func (s *FileStore) write(clients []Client) error {
	data, err := json.MarshalIndent(clients, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portals: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create portals dir: %w", err)
		}
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write portals file: %w", err)
	}
	return nil
}

func sanitize(stored []storedClient) ([]Client, bool) {
	changed := false
	clients := make([]Client, 0, len(stored))
	for _, sc := range stored {
		c := Client{ID: sc.ID, Name: sc.Name, Portals: []Portal{}}
		if c.ID == "" {
			c.ID = uuid.NewString()
			changed = true
		}
		if c.Name == "" && (sc.LegacyName != "" || sc.OldName != "") {
			c.Name = firstNonEmpty(sc.LegacyName, sc.OldName)
			changed = true
		}
		portals := sc.Portals
		if len(portals) == 0 && len(sc.OldPortals) > 0 {
			portals = sc.OldPortals
			changed = true
		}
		for _, sp := range portals {
			p := Portal{
				ID:       sp.ID,
				Name:     firstNonEmpty(sp.Name, sp.LegacyName),
				URL:      sp.URL,
				Username: firstNonEmpty(sp.Username, sp.OldUsername),
				Password: firstNonEmpty(sp.Password, sp.OldPassword),
			}
			if p.ID == "" {
				p.ID = uuid.NewString()
				changed = true
			}
			if sp.LegacyName != "" || sp.OldUsername != "" || sp.OldPassword != "" {
				changed = true
			}
			c.Portals = append(c.Portals, p)
		}
		clients = append(clients, c)
	}
	return clients, changed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
