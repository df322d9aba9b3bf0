package notify

import (
	"sort"
	"sync"
)

// Registry maps identities to their live channels. One identity may hold
// several channels at once (one per device or tab).
type Registry struct {
	mu         sync.RWMutex
	byIdentity map[string]map[string]Channel
	owners     map[string]string // channel id -> identity
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byIdentity: make(map[string]map[string]Channel),
		owners:     make(map[string]string),
	}
}

// Register adds ch under identity. A channel already registered under a
// different identity is moved.
func (r *Registry) Register(identity string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ch.ID()
	if prev, ok := r.owners[id]; ok && prev != identity {
		r.removeLocked(prev, id)
	}

	set := r.byIdentity[identity]
	if set == nil {
		set = make(map[string]Channel)
		r.byIdentity[identity] = set
	}
	set[id] = ch
	r.owners[id] = identity
}

// Unregister removes ch. Unknown channels are ignored.
func (r *Registry) Unregister(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ch.ID()
	if identity, ok := r.owners[id]; ok {
		r.removeLocked(identity, id)
	}
}

func (r *Registry) removeLocked(identity, id string) {
	delete(r.owners, id)
	set := r.byIdentity[identity]
	delete(set, id)
	if len(set) == 0 {
		delete(r.byIdentity, identity)
	}
}

// ChannelsFor returns a snapshot of the identity's live channels.
func (r *Registry) ChannelsFor(identity string) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byIdentity[identity]
	if len(set) == 0 {
		return nil
	}
	channels := make([]Channel, 0, len(set))
	for _, ch := range set {
		channels = append(channels, ch)
	}
	return channels
}

// Count returns the number of live channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

// Identities returns every identity with at least one channel, sorted.
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identities := make([]string, 0, len(r.byIdentity))
	for identity := range r.byIdentity {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	return identities
}
