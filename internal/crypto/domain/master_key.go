package domain

import (
	"time"
)

// MasterKey is a per-scope Key Encryption Key: the key that wraps the
// single-use Data Encryption Keys protecting payloads.
//
// Each user owns at most one active master key at a time (OwnerScope is the
// user identifier); the system-wide fallback key lives under DefaultKeyScope.
// Master keys exist only in process memory. Durable custody of the default
// key is delegated to an external KMS through the bootstrap path; per-user
// keys are issued at runtime and survive only as long as the process.
//
// Security considerations:
//   - Key material is exactly 32 bytes, produced by a CSPRNG
//   - Material is never logged, serialized, or exposed over the API
//   - Retiring a key zeroes its material; the record stays as a tombstone
//     so the identifier can never be reissued
type MasterKey struct {
	// KeyID uniquely identifies the key. Immutable once issued, never reused.
	KeyID string
	// Key is the raw 32-byte key material.
	Key []byte
	// Algorithm selects the AEAD used for operations under this key.
	Algorithm Algorithm
	// OwnerScope is the user identifier owning the key, or DefaultKeyScope.
	OwnerScope string
	// State is the lifecycle state (active, deprecated, retired).
	State KeyState
	// RotatedFrom holds the KeyID this key replaced; empty for a first issue.
	RotatedFrom string
	// CreatedAt is the issue time in UTC.
	CreatedAt time.Time
}

// NewMasterKey builds an active master key from raw material. The material
// is copied, so the caller may (and should) zero its own buffer afterwards.
// Returns ErrInvalidKeySize unless the material is exactly KeySize bytes and
// ErrUnsupportedAlgorithm for an unknown algorithm.
func NewMasterKey(keyID string, key []byte, algorithm Algorithm, ownerScope string) (*MasterKey, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	switch algorithm {
	case AESGCM, ChaCha20:
	default:
		return nil, ErrUnsupportedAlgorithm
	}

	material := make([]byte, KeySize)
	copy(material, key)

	return &MasterKey{
		KeyID:      keyID,
		Key:        material,
		Algorithm:  algorithm,
		OwnerScope: ownerScope,
		State:      KeyStateActive,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CanEncrypt reports whether the key may protect new payloads.
// Only active keys encrypt.
func (m *MasterKey) CanEncrypt() bool {
	return m.State == KeyStateActive
}

// CanDecrypt reports whether the key may open existing envelopes.
// Active and deprecated keys decrypt; retired keys do not.
func (m *MasterKey) CanDecrypt() bool {
	return m.State == KeyStateActive || m.State == KeyStateDeprecated
}

// Deprecate moves an active key to the deprecated state. The key keeps its
// material and remains able to decrypt. Any other starting state returns
// ErrInvalidKeyState.
func (m *MasterKey) Deprecate() error {
	if m.State != KeyStateActive {
		return ErrInvalidKeyState
	}
	m.State = KeyStateDeprecated
	return nil
}

// Retire moves a deprecated key to the retired state and zeroes its material.
// Retiring an active key is rejected with ErrInvalidKeyState: rotate first so
// the owner scope keeps an encryption-capable key.
func (m *MasterKey) Retire() error {
	if m.State != KeyStateDeprecated {
		return ErrInvalidKeyState
	}
	m.State = KeyStateRetired
	Zero(m.Key)
	m.Key = nil
	return nil
}

// Snapshot returns a value copy with independently-owned key material.
// Registry lookups hand out snapshots so concurrent lifecycle transitions
// cannot zero material out from under an in-flight operation. Callers zero
// the snapshot's Key when finished.
func (m *MasterKey) Snapshot() *MasterKey {
	cp := *m
	if m.Key != nil {
		cp.Key = make([]byte, len(m.Key))
		copy(cp.Key, m.Key)
	}
	return &cp
}
