package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"two_point_controller/internal/models"
)

// StateFile keeps the snapshot in a single JSON file, replaced wholesale on
// every save. At most one write is in flight; saves arriving meanwhile
// coalesce into one pending write of the newest snapshot.
type StateFile struct {
	path      string
	writeFile func(path string, data []byte) error

	mu      sync.Mutex
	pending *fileWrite
	writing bool
}

// fileWrite is a queued write shared by every Save coalesced into it.
type fileWrite struct {
	data []byte
	done chan struct{}
	err  error
}

func NewStateFile(path string) *StateFile {
	return &StateFile{path: path, writeFile: writeFileAtomic}
}

func (r *StateFile) Path() string { return r.path }

// Save queues the snapshot and waits for it, or a newer one, to reach the
// file. If ctx expires first, Save returns and the write still completes.
func (r *StateFile) Save(ctx context.Context, s models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save state to %s: %w", r.path, err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	r.mu.Lock()
	if r.pending == nil {
		r.pending = &fileWrite{done: make(chan struct{})}
	}
	w := r.pending
	w.data = data
	if !r.writing {
		r.writing = true
		go r.drain()
	}
	r.mu.Unlock()

	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return fmt.Errorf("save state to %s: %w", r.path, ctx.Err())
	}
}

// drain writes pending snapshots until none is left, then exits.
func (r *StateFile) drain() {
	for {
		r.mu.Lock()
		w := r.pending
		r.pending = nil
		if w == nil {
			r.writing = false
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		w.err = r.writeFile(r.path, w.data)
		close(w.done)
	}
}

// Load reads the snapshot. A missing file is not an error.
func (r *StateFile) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state %s: %w", r.path, err)
	}
	var s models.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", r.path, err)
	}
	return &s, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state %s: %w", path, err)
	}
	return nil
}
