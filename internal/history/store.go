// Package history persists one append-only transcript per pair of
// participants and replays every transcript a participant belongs to.
package history

import (
	"context"
	"iter"
	"strings"

	"github.com/samber/lo"
)

// Store is the conversation log contract used by the relay.
type Store interface {
	// Append adds line to the conversation log and returns once it is durable.
	Append(ctx context.Context, key Key, line string) error
	// Replay yields every line of every conversation name takes part in,
	// conversation by conversation in key order.
	Replay(ctx context.Context, name string) iter.Seq2[string, error]
	// Transcript yields the lines of a single conversation in file order.
	Transcript(ctx context.Context, key Key) iter.Seq2[string, error]
	// Conversations lists the keys name takes part in, sorted.
	Conversations(ctx context.Context, name string) ([]Key, error)
}

type transcriptReader interface {
	Transcript(ctx context.Context, key Key) iter.Seq2[string, error]
	Conversations(ctx context.Context, name string) ([]Key, error)
}

// replay walks each conversation once; the first error ends the sequence.
func replay(ctx context.Context, r transcriptReader, name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		keys, err := r.Conversations(ctx, name)
		if err != nil {
			yield("", err)
			return
		}
		for _, key := range lo.Uniq(keys) {
			for line, err := range r.Transcript(ctx, key) {
				if !yield(line, err) || err != nil {
					return
				}
			}
		}
	}
}

func cleanLine(line string) string {
	return strings.TrimSpace(line)
}
