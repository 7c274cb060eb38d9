package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"aponte/internal/models"

	"gopkg.in/yaml.v3"
)

// Store persists the (token, userId) pair. Load returns nil, nil when no
// complete session is stored.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

// record is the on-disk shape: exactly two opaque strings
type record struct {
	Token  string `yaml:"token"`
	UserID string `yaml:"user_id"`
}

// FileStore keeps the session in a small YAML file readable only by the owner
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed session store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored pair. Partial state is treated as absent.
func (s *FileStore) Load(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return fromRecord(rec), nil
}

// Save writes both values atomically
func (s *FileStore) Save(ctx context.Context, sess models.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("refusing to store incomplete session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(record{
		Token:  sess.Token,
		UserID: strconv.FormatInt(sess.UserID, 10),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear removes both values
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the pair in memory
type MemoryStore struct {
	mu    sync.Mutex
	token string
	user  string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SetRaw stores the two strings as is, including partial state
func (m *MemoryStore) SetRaw(token, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.user = token, userID
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fromRecord(record{Token: m.token, UserID: m.user}), nil
}

func (m *MemoryStore) Save(ctx context.Context, sess models.Session) error {
	if !sess.Valid() {
		return fmt.Errorf("refusing to store incomplete session")
	}
	m.SetRaw(sess.Token, strconv.FormatInt(sess.UserID, 10))
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.SetRaw("", "")
	return nil
}

func fromRecord(rec record) *models.Session {
	token := strings.TrimSpace(rec.Token)
	userID, err := strconv.ParseInt(strings.TrimSpace(rec.UserID), 10, 64)
	if token == "" || err != nil || userID <= 0 {
		return nil
	}
	return &models.Session{Token: token, UserID: userID}
}
