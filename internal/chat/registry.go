package chat

import (
	"iter"
	"slices"
	"sync"
)

// Member pairs a live connection with the name it declared.
type Member struct {
	Peer Peer
	Name string
}

// Registry is the set of live connections. Names are not unique: two
// connections may declare the same name and both receive traffic.
type Registry struct {
	mu      sync.RWMutex
	members []Member
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds the connection under name. Join order is kept so fan-out
// iterates connections in the order they arrived.
func (r *Registry) Register(p Peer, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = append(r.members, Member{Peer: p, Name: name})
}

// Deregister removes the exact (p, name) pairing. Removing an absent pairing
// is a no-op and reports false.
func (r *Registry) Deregister(p Peer, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.members, func(m Member) bool {
		return m.Peer == p && m.Name == name
	})
	if i < 0 {
		return false
	}
	r.members = slices.Delete(r.members, i, i+1)
	return true
}

// List returns a point-in-time snapshot. Later registrations are not seen by
// an iteration already in progress; call List again for fresh membership.
func (r *Registry) List() iter.Seq[Member] {
	r.mu.RLock()
	snapshot := slices.Clone(r.members)
	r.mu.RUnlock()
	return slices.Values(snapshot)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Names lists declared names in join order, duplicates included.
func (r *Registry) Names() []string {
	var names []string
	for m := range r.List() {
		names = append(names, m.Name)
	}
	return names
}
