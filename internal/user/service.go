package user

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"go-relay/internal/history"
)

// Directory is what we need from the connection registry.
type Directory interface {
	Names() []string
}

type Service struct {
	online Directory
	logs   history.Store
}

func NewService(online Directory, logs history.Store) *Service {
	return &Service{online: online, logs: logs}
}

// Online lists the distinct names currently connected, sorted.
func (s *Service) Online() []string {
	names := lo.Uniq(s.online.Names())
	slices.Sort(names)
	return names
}

// Peers lists everyone name has a conversation log with.
func (s *Service) Peers(ctx context.Context, name string) ([]string, error) {
	keys, err := s.logs.Conversations(ctx, name)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(keys, func(k history.Key, _ int) (string, bool) {
		return k.Peer(name)
	}), nil
}

// Transcript reads the whole conversation between a and b.
func (s *Service) Transcript(ctx context.Context, a, b string) (history.Key, []string, error) {
	key := history.CanonicalKey(a, b)
	lines := []string{}
	for line, err := range s.logs.Transcript(ctx, key) {
		if err != nil {
			return key, nil, err
		}
		lines = append(lines, line)
	}
	return key, lines, nil
}
