package vitel

import (
	"sort"
	"sync"
)

// namespace holds the members published on an app: global services under
// their names plus any properties set by the host
type namespace struct {
	mu      sync.RWMutex
	members map[string]any
}

func newNamespace() *namespace {
	return &namespace{members: make(map[string]any)}
}

func (n *namespace) load(name string) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.members[name]
	return v, ok
}

func (n *namespace) store(name string, val any) {
	n.mu.Lock()
	n.members[name] = val
	n.mu.Unlock()
}

func (n *namespace) names() []string {
	n.mu.RLock()
	out := make([]string, 0, len(n.members))
	for k := range n.members {
		out = append(out, k)
	}
	n.mu.RUnlock()
	sort.Strings(out)
	return out
}
