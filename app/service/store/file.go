package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"careloop/app/domain"

	"github.com/elliotchance/pie/v2"
)

// FileStore keeps one JSON line per customer and rewrites the file on every
// save.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create store file: %w", err)
	}
	defer file.Close()

	return &FileStore{
		path: path,
	}, nil
}

func (s *FileStore) load() ([]domain.Session, error) {
	file, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	var sessions []domain.Session

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var session domain.Session
		if err = json.Unmarshal([]byte(line), &session); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line: %w", err)
		}

		sessions = append(sessions, session)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading store file: %w", err)
	}

	return sessions, nil
}

func (s *FileStore) save(sessions []domain.Session) (err error) {
	tmpPath := s.path + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create/open store file: %w", err)
	}
	defer file.Close()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	writer := bufio.NewWriter(file)

	for _, session := range sessions {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if _, err = writer.WriteString(string(data) + "\n"); err != nil {
			return fmt.Errorf("failed to write session: %w", err)
		}
	}

	if err = writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}

	return os.Rename(tmpPath, s.path)
}

func (s *FileStore) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}

	index := pie.FindFirstUsing(sessions, func(existing domain.Session) bool {
		return existing.CustomerID == session.CustomerID
	})
	if index >= 0 {
		sessions[index] = session
	} else {
		sessions = append(sessions, session)
	}

	return s.save(sessions)
}

func (s *FileStore) Load(ctx context.Context, customerID string) (domain.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.load()
	if err != nil {
		return domain.Session{}, false, err
	}

	index := pie.FindFirstUsing(sessions, func(existing domain.Session) bool {
		return existing.CustomerID == customerID
	})
	if index < 0 {
		return domain.Session{}, false, nil
	}

	return sessions[index], true, nil
}

func (s *FileStore) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load()
}

func (s *FileStore) Shutdown() error {
	return nil
}
