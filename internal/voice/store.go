// Package voice stores voice-note payloads and serves them back over HTTP.
package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"go-relay/internal/errs"
)

const (
	// Ext is appended to every generated blob identifier.
	Ext = ".webm"
	// RoutePrefix is where stored blobs are served from.
	RoutePrefix = "/voice/"
)

// Handle is what a stored blob can be retrieved by.
type Handle struct {
	ID  string
	URL string
}

// Store is the content blob contract used by the relay.
type Store interface {
	Put(ctx context.Context, data []byte) (Handle, error)
	Get(ctx context.Context, id string) ([]byte, error)
}

// LocalStore writes each blob to its own file under root.
type LocalStore struct {
	root string
}

// NewLocalStore creates root (and its tmp directory) if missing.
func NewLocalStore(root string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("voice root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create voice root: %w", errs.ErrStorage, err)
	}
	return &LocalStore{root: abs}, nil
}

// Put writes data under a fresh identifier. The blob is fully on disk before
// the handle is returned.
func (s *LocalStore) Put(ctx context.Context, data []byte) (Handle, error) {
	var zero Handle
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %w", errs.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return zero, fmt.Errorf("%w: create temp: %w", errs.ErrStorage, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return zero, fmt.Errorf("%w: write: %w", errs.ErrStorage, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return zero, fmt.Errorf("%w: sync: %w", errs.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return zero, fmt.Errorf("%w: close: %w", errs.ErrStorage, err)
	}

	id := uuid.NewString() + Ext
	if err := os.Rename(tmpPath, filepath.Join(s.root, id)); err != nil {
		_ = os.Remove(tmpPath)
		return zero, fmt.Errorf("%w: rename: %w", errs.ErrStorage, err)
	}
	return Handle{ID: id, URL: RoutePrefix + id}, nil
}

// Get returns the blob stored under id, or errs.ErrNotFound.
func (s *LocalStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: voice note %q", errs.ErrNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(s.root, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: voice note %q", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", errs.ErrStorage, id, err)
	}
	return data, nil
}

// ValidID accepts only identifiers Put could have generated.
func ValidID(id string) bool {
	base, ok := strings.CutSuffix(id, Ext)
	if !ok {
		return false
	}
	_, err := uuid.Parse(base)
	return err == nil && len(base) == 36
}
