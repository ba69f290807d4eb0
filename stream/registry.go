package stream

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry tracks the open channels of every connected user. One instance
// per process; scaling beyond a single instance requires replacing this with
// a shared pub/sub backend.
type Registry struct {
	logger *log.Logger

	mu       sync.Mutex
	channels map[string]map[*Channel]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Registry{
		logger:   logger,
		channels: make(map[string]map[*Channel]struct{}),
	}
}

// Register adds a channel to the user's set, creating the set if absent.
// There is no per-user channel limit: one user may hold several open tabs or
// devices at once.
func (r *Registry) Register(userID string, ch *Channel) {
	r.mu.Lock()
	set, ok := r.channels[userID]
	if !ok {
		set = make(map[*Channel]struct{})
		r.channels[userID] = set
	}
	set[ch] = struct{}{}
	n := len(set)
	r.mu.Unlock()
	r.logger.WithFields(log.Fields{"user": userID, "channels": n}).Debug("stream channel registered")
}

// Unregister removes a channel from the user's set and drops the user key
// once the set empties. Unregistering an already-removed channel is a no-op.
func (r *Registry) Unregister(userID string, ch *Channel) {
	r.mu.Lock()
	if set, ok := r.channels[userID]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(r.channels, userID)
		}
	}
	r.mu.Unlock()
}

// Users returns the identities that currently hold at least one open
// channel. Diagnostics only.
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]string, 0, len(r.channels))
	for uid := range r.channels {
		users = append(users, uid)
	}
	return users
}

// Len returns the number of users with at least one open channel.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// snapshot copies the user's channel set so writes happen outside the lock.
func (r *Registry) snapshot(userID string) []*Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.channels[userID]
	if !ok {
		return nil
	}
	out := make([]*Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}
