// Package session tracks connected identities and which of them is host.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one connected client. IsHost is computed when the value is read
// from the registry and is not updated afterwards.
type Session struct {
	ID          string    `json:"id"`
	IsHost      bool      `json:"isHost"`
	ConnectedAt time.Time `json:"connectedAt"`

	seq uint64
}

// HostPolicy picks the host among the currently connected sessions, which are
// passed in connection order. It returns false when nobody qualifies.
type HostPolicy interface {
	ElectHost(connected []Session) (string, bool)
}

// HostPolicyFunc adapts a function into a HostPolicy.
type HostPolicyFunc func(connected []Session) (string, bool)

func (f HostPolicyFunc) ElectHost(connected []Session) (string, bool) {
	return f(connected)
}

// EarliestConnected makes the oldest still-open session the host.
var EarliestConnected HostPolicy = HostPolicyFunc(func(connected []Session) (string, bool) {
	if len(connected) == 0 {
		return "", false
	}
	return connected[0].ID, true
})

// Registry is the contract the hub depends on.
type Registry interface {
	Connect(now time.Time) Session
	Disconnect(id string) (Session, bool)
	Get(id string) (Session, bool)
	Host() (Session, bool)
	IsHost(id string) bool
	Sessions() []Session
	Len() int
}

// Config tunes a MemoryRegistry.
type Config struct {
	Policy HostPolicy
	NewID  func() string
}

// MemoryRegistry is the in-process Registry.
type MemoryRegistry struct {
	mu       sync.RWMutex
	policy   HostPolicy
	newID    func() string
	sessions map[string]Session
	nextSeq  uint64
}

var _ Registry = (*MemoryRegistry)(nil)

// NewRegistry builds an empty registry. Ids default to random UUIDs and host
// selection defaults to EarliestConnected.
func NewRegistry(cfg Config) *MemoryRegistry {
	policy := cfg.Policy
	if policy == nil {
		policy = EarliestConnected
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &MemoryRegistry{
		policy:   policy,
		newID:    newID,
		sessions: make(map[string]Session),
	}
}

// Connect registers a new session and returns it with its host flag resolved.
func (r *MemoryRegistry) Connect(now time.Time) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.sessions[id]; !taken && id != "" {
			break
		}
		id = uuid.NewString()
	}
	r.nextSeq++
	s := Session{ID: id, ConnectedAt: now, seq: r.nextSeq}
	r.sessions[id] = s
	return r.resolveLocked(s)
}

// Disconnect removes the session. The returned value carries the host flag the
// session held right before removal; ok is false for unknown ids.
func (r *MemoryRegistry) Disconnect(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	s = r.resolveLocked(s)
	delete(r.sessions, id)
	return s, true
}

func (r *MemoryRegistry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return r.resolveLocked(s), true
}

func (r *MemoryRegistry) Host() (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hostID, ok := r.policy.ElectHost(r.orderedLocked())
	if !ok {
		return Session{}, false
	}
	s, ok := r.sessions[hostID]
	if !ok {
		return Session{}, false
	}
	s.IsHost = true
	return s, true
}

func (r *MemoryRegistry) IsHost(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hostID, ok := r.policy.ElectHost(r.orderedLocked())
	return ok && hostID == id
}

// Sessions lists connected sessions oldest first.
func (r *MemoryRegistry) Sessions() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := r.orderedLocked()
	hostID, hasHost := r.policy.ElectHost(ordered)
	for i := range ordered {
		ordered[i].IsHost = hasHost && ordered[i].ID == hostID
	}
	return ordered
}

func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *MemoryRegistry) orderedLocked() []Session {
	ordered := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		s.IsHost = false
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })
	return ordered
}

func (r *MemoryRegistry) resolveLocked(s Session) Session {
	hostID, ok := r.policy.ElectHost(r.orderedLocked())
	s.IsHost = ok && hostID == s.ID
	return s
}
