package identity

import (
	"context"
	"encoding/json"
	"fmt"
)

const sessionKey = "identity.session"

// KV is the slice of the profile store the session needs.
type KV interface {
	GetValue(ctx context.Context, key string) ([]byte, error)
	SetValue(ctx context.Context, key string, value []byte) error
}

// KVSessionStore stores the session as JSON in a key/value bucket.
type KVSessionStore struct {
	kv KV
}

// NewKVSessionStore creates a session store over the given bucket.
func NewKVSessionStore(kv KV) *KVSessionStore {
	return &KVSessionStore{kv: kv}
}

// Load returns the stored session, or nil when none exists.
func (s *KVSessionStore) Load(ctx context.Context) (*Session, error) {
	raw, err := s.kv.GetValue(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Principal == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save upserts the session.
func (s *KVSessionStore) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.SetValue(ctx, sessionKey, raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

var _ SessionStore = (*KVSessionStore)(nil)
