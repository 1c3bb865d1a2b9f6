package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"go-relay/internal/errs"
)

const (
	logExt = ".txt"
	// Conversations hash onto a fixed set of locks.
	lockStripes = 64
)

// FileStore keeps one text file per conversation under root.
type FileStore struct {
	root  string
	locks [lockStripes]sync.Mutex
}

// NewFileStore creates root if it does not exist yet.
func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("log root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create log root: %w", errs.ErrPersistence, err)
	}
	return &FileStore{root: root}, nil
}

// Path returns the file backing key.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.root, string(key)+logExt)
}

// lock returns the stripe guarding key. A conversation always maps to the
// same stripe; unrelated conversations rarely share one.
func (s *FileStore) lock(key Key) *sync.Mutex {
	return &s.locks[xxhash.Sum64String(string(key))%lockStripes]
}

func (s *FileStore) Append(ctx context.Context, key Key, line string) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: append %s: %w", errs.ErrPersistence, key, err)
	}
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(s.Path(key), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", errs.ErrPersistence, key, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", errs.ErrPersistence, key, cerr)
		}
	}()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: write %s: %w", errs.ErrPersistence, key, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", errs.ErrPersistence, key, err)
	}
	return nil
}

func (s *FileStore) Replay(ctx context.Context, name string) iter.Seq2[string, error] {
	return replay(ctx, s, name)
}

// Conversations scans root in lexicographic order. Files whose name is not a
// canonical key are ignored, so each conversation maps to exactly one file.
func (s *FileStore) Conversations(ctx context.Context, name string) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", errs.ErrPersistence, err)
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations: %w", errs.ErrPersistence, err)
	}
	var keys []Key
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), logExt) {
			continue
		}
		key := Key(strings.TrimSuffix(entry.Name(), logExt))
		if key.Canonical() && key.Has(name) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Transcript reads the file up to the size it had when the call started, so
// a concurrent append is never observed half-written.
func (s *FileStore) Transcript(ctx context.Context, key Key) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		l := s.lock(key)
		l.Lock()
		f, err := os.Open(s.Path(key))
		var size int64
		if err == nil {
			var info os.FileInfo
			if info, err = f.Stat(); err == nil {
				size = info.Size()
			} else {
				_ = f.Close()
			}
		}
		l.Unlock()

		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			yield("", fmt.Errorf("%w: open %s: %w", errs.ErrPersistence, key, err))
			return
		}
		defer f.Close()

		// ReadString has no line cap, so an oversized message cannot end replay.
		reader := bufio.NewReader(io.LimitReader(f, size))
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield("", fmt.Errorf("%w: read %s: %w", errs.ErrPersistence, key, ctxErr))
					return
				}
				if !yield(cleanLine(line), nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("%w: read %s: %w", errs.ErrPersistence, key, err))
				return
			}
		}
	}
}
