// Package file keeps session status on the local disk so it survives the
// controller process: one JSON document per instance plus an append-only
// transition log.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/warden/pkg/domain"
)

// Store implements ports.StatusStore in a directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a store rooted at dir, creating it if needed. A directory that
// cannot be created is reported as ExitSettingsDirectory.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, domain.Fatal(domain.ExitSettingsDirectory, errors.New("state directory not set"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.Fatal(domain.ExitSettingsDirectory, fmt.Errorf("create state directory: %w", err))
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) statePath(instance string) string {
	return filepath.Join(s.dir, instance+".json")
}

func (s *Store) historyPath(instance string) string {
	return filepath.Join(s.dir, instance+".history.jsonl")
}

// Save replaces the state for an instance. The file is written to a temporary
// sibling, synced and renamed so readers never see a partial document.
func (s *Store) Save(ctx context.Context, instance string, state domain.SessionState) error {
	if instance == "" {
		return errors.New("instance cannot be empty")
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "tmp-"+instance+"-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	dest := s.statePath(instance)
	// Rename does not replace an existing file on Windows.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("replace state file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

// Load returns domain.ErrStatusNotFound if nothing was saved.
func (s *Store) Load(ctx context.Context, instance string) (domain.SessionState, error) {
	data, err := os.ReadFile(s.statePath(instance))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.SessionState{}, domain.ErrStatusNotFound
		}
		return domain.SessionState{}, fmt.Errorf("read state file: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// Record appends a transition as one JSON line.
func (s *Store) Record(ctx context.Context, instance string, ev domain.TransitionEvent) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode transition: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.historyPath(instance), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	return f.Close()
}

// History returns up to limit transitions, newest first. A limit of zero or
// less returns everything.
func (s *Store) History(ctx context.Context, instance string, limit int) ([]domain.TransitionEvent, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.historyPath(instance))
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var all []domain.TransitionEvent
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var ev domain.TransitionEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("decode transition: %w", err)
		}
		all = append(all, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}

	out := make([]domain.TransitionEvent, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
