package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store, used in tests and as
// a fallback when no writable data directory exists.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	flags    map[string]bool
	kv       map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*Profile),
		flags:    make(map[string]bool),
		kv:       make(map[string][]byte),
	}
}

// SaveIdentity upserts the principal/push-token pair.
func (m *MemoryStore) SaveIdentity(_ context.Context, principal, pushToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[principal]
	if !ok {
		p = &Profile{Principal: principal}
		m.profiles[principal] = p
	}
	p.PushToken = pushToken
	p.UpdatedAt = time.Now()
	return nil
}

// SaveLocation records the latest sample for the principal.
func (m *MemoryStore) SaveLocation(_ context.Context, principal string, lat, lon float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[principal]
	if !ok {
		p = &Profile{Principal: principal}
		m.profiles[principal] = p
	}
	latCopy, lonCopy := lat, lon
	p.Latitude = &latCopy
	p.Longitude = &lonCopy
	p.UpdatedAt = at
	return nil
}

// Get returns a copy of the stored profile.
func (m *MemoryStore) Get(_ context.Context, principal string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[principal]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

// Registered reports whether the principal's registration flag is set.
func (m *MemoryStore) Registered(_ context.Context, principal string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[principal], nil
}

// MarkRegistered sets the principal's registration flag.
func (m *MemoryStore) MarkRegistered(_ context.Context, principal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[principal] = true
	return nil
}

// GetValue reads from the key/value bucket.
func (m *MemoryStore) GetValue(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.kv[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// SetValue upserts into the key/value bucket.
func (m *MemoryStore) SetValue(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.kv[key] = v
	return nil
}

var _ Store = (*MemoryStore)(nil)
