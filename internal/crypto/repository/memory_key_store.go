// Package repository implements the master key registry.
//
// The registry is memory-only: durable custody of the default master key is
// the KMS/operator's concern, and per-user keys are issued at runtime. A
// process restart therefore loses every non-default key, which is the
// intended trade-off for a service that never persists key material.
//
// MemoryKeyStore guards its map with a sync.RWMutex. Reads take the read
// lock, lifecycle transitions the write lock, so handlers and the lifecycle
// manager can share one store safely. Every method accepts a context so a
// remote-vault implementation of the KeyStore interface stays drop-in; the
// in-memory store itself never blocks and never returns
// ErrKeyStoreUnavailable.
package repository

import (
	"context"
	"sync"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// MemoryKeyStore is an in-memory implementation of the KeyStore interface.
//
// Retired keys stay in the map as tombstones with zeroed material, so a key
// identifier can never be reissued for the lifetime of the process. Lookups
// hand out snapshots (value copies with independently-owned material), never
// pointers into the map, so a concurrent retire cannot zero a key out from
// under an in-flight encryption.
type MemoryKeyStore struct {
	mu sync.RWMutex
	// keys maps keyID to the authoritative record, tombstones included.
	keys map[string]*cryptoDomain.MasterKey
	// activeByScope maps an owner scope to its single active keyID.
	activeByScope map[string]string
}

// NewMemoryKeyStore creates an empty key store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		keys:          make(map[string]*cryptoDomain.MasterKey),
		activeByScope: make(map[string]string),
	}
}

// Register adds a master key to the store.
//
// Returns ErrDuplicateKeyID when the keyID is already present (tombstones
// count: retired identifiers are never reusable) or when the key is active
// and its owner scope already has an active key. Returns ErrInvalidKeySize
// for material that is not exactly KeySize bytes.
//
// The store keeps its own snapshot, so the caller's copy can be zeroed or
// mutated freely afterwards.
func (s *MemoryKeyStore) Register(_ context.Context, key *cryptoDomain.MasterKey) error {
	if len(key.Key) != cryptoDomain.KeySize {
		return cryptoDomain.ErrInvalidKeySize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.KeyID]; exists {
		return cryptoDomain.ErrDuplicateKeyID
	}
	if key.State == cryptoDomain.KeyStateActive {
		if _, exists := s.activeByScope[key.OwnerScope]; exists {
			return cryptoDomain.ErrDuplicateKeyID
		}
		s.activeByScope[key.OwnerScope] = key.KeyID
	}

	s.keys[key.KeyID] = key.Snapshot()
	return nil
}

// Resolve returns a snapshot of the key with the given id.
//
// Unknown ids and retired keys both fail closed with ErrKeyNotFound; the
// caller cannot distinguish "never existed" from "existed and was retired".
// Deprecated keys still resolve so old envelopes stay readable.
func (s *MemoryKeyStore) Resolve(_ context.Context, keyID string) (*cryptoDomain.MasterKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.keys[keyID]
	if !exists || key.State == cryptoDomain.KeyStateRetired {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	return key.Snapshot(), nil
}

// ActiveForScope returns a snapshot of the active key owned by the given
// scope, or ErrKeyNotFound when the scope has none.
func (s *MemoryKeyStore) ActiveForScope(_ context.Context, scope string) (*cryptoDomain.MasterKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyID, exists := s.activeByScope[scope]
	if !exists {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	return s.keys[keyID].Snapshot(), nil
}

// Deprecate moves an active key to the deprecated state, freeing its scope
// for a replacement. Returns ErrKeyNotFound for unknown ids and
// ErrInvalidKeyState when the key is not active.
func (s *MemoryKeyStore) Deprecate(_ context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, exists := s.keys[keyID]
	if !exists {
		return cryptoDomain.ErrKeyNotFound
	}
	if err := key.Deprecate(); err != nil {
		return err
	}

	if s.activeByScope[key.OwnerScope] == keyID {
		delete(s.activeByScope, key.OwnerScope)
	}
	return nil
}

// Retire moves a deprecated key to the retired state and zeroes its material.
// The record remains as a tombstone. Returns ErrKeyNotFound for unknown ids
// and ErrInvalidKeyState when the key is not deprecated (an active key must
// be rotated before it can be retired).
func (s *MemoryKeyStore) Retire(_ context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, exists := s.keys[keyID]
	if !exists {
		return cryptoDomain.ErrKeyNotFound
	}
	return key.Retire()
}

// Keys reports the number of registered keys, tombstones included.
func (s *MemoryKeyStore) Keys(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.keys)
}
