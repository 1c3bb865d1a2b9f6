package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go-relay/internal/errs"
)

func collect(t *testing.T, seq func(func(string, error) bool)) []string {
	t.Helper()
	var lines []string
	for line, err := range seq {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	return lines
}

func TestFileStore_Append_Writes_One_Line_Per_Call(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	key := CanonicalKey("ana", "bob")
	req.NoError(store.Append(ctx, key, "ana: hi bob"))

	content, err := os.ReadFile(store.Path(key))
	req.NoError(err)
	req.Equal("ana: hi bob\n", string(content))
	req.Equal("ana-bob.txt", filepath.Base(store.Path(key)))
}

func TestFileStore_Creates_Missing_Root(t *testing.T) {
	req := require.New(t)
	root := filepath.Join(t.TempDir(), "nested", "logs")

	_, err := NewFileStore(root)
	req.NoError(err)

	info, err := os.Stat(root)
	req.NoError(err)
	req.True(info.IsDir())
}

func TestFileStore_Replay_Returns_Every_Conversation_In_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	// Given Dave talked to erin and to carl
	req.NoError(store.Append(ctx, CanonicalKey("Dave", "erin"), "Dave: hello erin"))
	req.NoError(store.Append(ctx, CanonicalKey("Dave", "carl"), "carl: hey dave"))
	req.NoError(store.Append(ctx, CanonicalKey("erin", "Dave"), "erin: hi Dave"))
	// And erin talked to carl without Dave
	req.NoError(store.Append(ctx, CanonicalKey("erin", "carl"), "erin: private"))

	// When Dave joins
	lines := collect(t, store.Replay(ctx, "dave"))

	// Then carl-dave comes before dave-erin and lines keep file order
	req.Equal([]string{"carl: hey dave", "Dave: hello erin", "erin: hi Dave"}, lines)
}

func TestFileStore_Replay_Does_Not_Match_Substrings(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	req.NoError(store.Append(ctx, CanonicalKey("alice", "bob"), "alice: hi"))

	req.Empty(collect(t, store.Replay(ctx, "al")))
	req.Empty(collect(t, store.Replay(ctx, "-")))
	req.Len(collect(t, store.Replay(ctx, "ALICE")), 1)
}

func TestFileStore_Replay_Ignores_Non_Canonical_Files(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFileStore(root)
	req.NoError(err)

	req.NoError(store.Append(ctx, CanonicalKey("ana", "bob"), "ana: once"))
	req.NoError(os.WriteFile(filepath.Join(root, "bob-ana.txt"), []byte("ana: twice\n"), 0o644))
	req.NoError(os.WriteFile(filepath.Join(root, "notes.md"), []byte("ana\n"), 0o644))

	req.Equal([]string{"ana: once"}, collect(t, store.Replay(ctx, "ana")))
}

func TestFileStore_Transcript_Of_Unknown_Conversation_Is_Empty(t *testing.T) {
	req := require.New(t)
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	req.Empty(collect(t, store.Transcript(context.Background(), CanonicalKey("x", "y"))))
}

func TestFileStore_Replay_Stops_When_Consumer_Stops(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)
	key := CanonicalKey("ana", "bob")
	for i := range 5 {
		req.NoError(store.Append(ctx, key, fmt.Sprintf("ana: %d", i)))
	}

	var got []string
	for line, err := range store.Replay(ctx, "bob") {
		req.NoError(err)
		got = append(got, line)
		if len(got) == 2 {
			break
		}
	}
	req.Equal([]string{"ana: 0", "ana: 1"}, got)
}

func TestFileStore_Concurrent_Appends_Do_Not_Interleave(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)
	key := CanonicalKey("ana", "bob")

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append(ctx, key, fmt.Sprintf("ana: message %02d", i))
		}()
	}
	wg.Wait()

	lines := collect(t, store.Transcript(ctx, key))
	req.Len(lines, 50)
	for i := range 50 {
		req.Contains(lines, fmt.Sprintf("ana: message %02d", i))
	}
}

func TestFileStore_Append_Failure_Is_Persistence_Error(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	store, err := NewFileStore(root)
	req.NoError(err)

	// Given the root has been removed out from under the store
	req.NoError(os.RemoveAll(root))

	err = store.Append(context.Background(), CanonicalKey("ana", "bob"), "ana: lost")
	req.Error(err)
	req.True(errors.Is(err, errs.ErrPersistence))

	_, err = store.Conversations(context.Background(), "ana")
	req.True(errors.Is(err, errs.ErrPersistence))
}

func TestFileStore_Conversations_Lists_Keys_For_Name(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	req.NoError(store.Append(ctx, CanonicalKey("ana", "zed"), "ana: 1"))
	req.NoError(store.Append(ctx, CanonicalKey("ana", "bob"), "ana: 2"))
	req.NoError(store.Append(ctx, CanonicalKey("bob", "zed"), "bob: 3"))

	keys, err := store.Conversations(ctx, "Ana")
	req.NoError(err)
	req.Equal([]Key{"ana-bob", "ana-zed"}, keys)
}

func TestFileStore_Replay_Survives_Oversized_Line(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	// Given ana sent a 17 MiB message to bob
	huge := "ana: " + strings.Repeat("x", 17<<20)
	req.NoError(store.Append(ctx, CanonicalKey("ana", "bob"), huge))
	req.NoError(store.Append(ctx, CanonicalKey("ana", "bob"), "bob: got it"))
	// And cat wrote to ana afterwards
	req.NoError(store.Append(ctx, CanonicalKey("ana", "cat"), "cat: hello"))

	// When ana replays
	lines := collect(t, store.Replay(ctx, "ana"))

	// Then every conversation is replayed in full
	req.Len(lines, 3)
	req.Equal(huge, lines[0])
	req.Equal([]string{"bob: got it", "cat: hello"}, lines[1:])
}

func TestFileStore_Lock_Is_Stable_Per_Conversation(t *testing.T) {
	req := require.New(t)
	store, err := NewFileStore(t.TempDir())
	req.NoError(err)

	for i := range 1000 {
		key := CanonicalKey("ana", fmt.Sprintf("peer%d", i))
		req.Same(store.lock(key), store.lock(key))
	}
	req.Len(store.locks[:], lockStripes)
}
