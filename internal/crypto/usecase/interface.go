// Package usecase implements key lifecycle management.
//
// The use case layer coordinates the key registry, the envelope cipher
// services, and configuration to enforce the business rules of the key
// hierarchy: one active key per user, one-way lifecycle transitions, and a
// rotation trail for auditing. HTTP handlers and CLI commands both drive the
// same use cases.
package usecase

import (
	"context"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
)

// KeyStore is the master key registry consumed by the lifecycle manager and
// the envelope facade.
//
// The in-memory implementation lives in crypto/repository. The interface is
// deliberately context-first so a remote vault-backed store stays drop-in;
// such an implementation reports timeouts as ErrKeyStoreUnavailable, the
// only retryable error in the key hierarchy.
//
// Implementation requirements:
//   - Safe for concurrent use by handlers and the lifecycle manager
//   - At most one active key per owner scope at any time
//   - Lookups return copies; mutating a returned key must not affect the store
//   - Retired keys fail closed: Resolve reports ErrKeyNotFound for them
type KeyStore interface {
	// Register adds a key to the registry. Rejects duplicate identifiers
	// (tombstones included) and a second active key for a scope with
	// ErrDuplicateKeyID, and bad material with ErrInvalidKeySize.
	Register(ctx context.Context, key *cryptoDomain.MasterKey) error

	// Resolve returns the key with the given id. Unknown and retired ids
	// both return ErrKeyNotFound; deprecated keys still resolve.
	Resolve(ctx context.Context, keyID string) (*cryptoDomain.MasterKey, error)

	// ActiveForScope returns the single active key owned by the scope, or
	// ErrKeyNotFound when the scope has none.
	ActiveForScope(ctx context.Context, scope string) (*cryptoDomain.MasterKey, error)

	// Deprecate moves an active key to decrypt-only state.
	Deprecate(ctx context.Context, keyID string) error

	// Retire permanently disables a deprecated key and zeroes its material.
	Retire(ctx context.Context, keyID string) error

	// Keys reports the number of registered keys, tombstones included.
	Keys(ctx context.Context) int
}

// LifecycleUseCase manages issue, rotation, and retirement of per-user
// master keys, plus bootstrap of the default key.
//
// Lifecycle rules enforced here:
//   - Issuing a key for a user that already has an active one is rejected;
//     callers rotate instead.
//   - Rotation verifies the old key belongs to the requesting user, issues
//     the replacement, deprecates the old key (it can still decrypt), and
//     records one RotationEvent.
//   - Retirement requires prior deprecation; an active key must be rotated
//     away first.
type LifecycleUseCase interface {
	// IssueUserKey creates and registers a fresh active key owned by userID.
	// The returned record carries metadata only: its material is zeroed
	// because key material never leaves the registry.
	IssueUserKey(ctx context.Context, userID string) (*cryptoDomain.MasterKey, error)

	// RotateUserKey replaces oldKeyID with a fresh key for userID. The old
	// key is deprecated and keeps decrypting existing envelopes until it is
	// retired. Returns ErrIdentityMismatch when oldKeyID is not owned by
	// userID. The returned record carries metadata only.
	RotateUserKey(ctx context.Context, userID, oldKeyID string) (*cryptoDomain.MasterKey, error)

	// RetireKey permanently disables a deprecated key.
	RetireKey(ctx context.Context, keyID string) error

	// RotationEvents returns the audit trail of rotations for userID,
	// oldest first.
	RotationEvents(ctx context.Context, userID string) ([]cryptoDomain.RotationEvent, error)

	// EnsureDefaultKey idempotently bootstraps the default-scope key from
	// configuration. Called once at startup before the service accepts
	// traffic.
	EnsureDefaultKey(ctx context.Context) error
}
