// Package usecase implements the envelope encryption facade.
//
// This package provides the use case layer for encrypting and decrypting
// user payloads. It composes the key registry, the envelope cipher and the
// payload sanitizer into the single seam both the HTTP handlers and the CLI
// drive. The facade owns the per-operation discipline: key selection,
// identity binding, DEK lifetime and the retry policy for an unavailable
// key store.
//
// # Key Components
//
// The package includes:
//   - EnvelopeUseCase: Encrypts and decrypts payloads bound to a user identity
//   - Interfaces: Defines contracts for the key registry, cipher and sanitizer
//
// # Business Rules
//
// The use case enforces rules such as:
//   - Every payload is encrypted under a fresh single-use DEK
//   - The DEK is wrapped under the caller's active master key, falling back
//     to the default scope key when the user has none issued
//   - The caller identity is bound as AEAD associated data and re-checked in
//     constant time before any decryption work
//   - Session and pose payloads are sanitized before encryption, so
//     high-risk fields never enter an envelope
//   - Plaintext DEK buffers are zeroed as soon as the operation completes
package usecase

import (
	"context"

	cryptoDomain "github.com/fitvault/fitvault/internal/crypto/domain"
	envelopeDomain "github.com/fitvault/fitvault/internal/envelope/domain"
)

// KeyResolver is the slice of the key registry the envelope path reads.
//
// Both lookups return snapshots whose material the caller must zero after
// use. Implementations may be remote; lookups honor context cancellation and
// report timeouts as crypto/domain.ErrKeyStoreUnavailable so callers can
// retry.
type KeyResolver interface {
	// Resolve returns the master key with the given identifier. Deprecated
	// keys still resolve; retired or unknown identifiers fail with
	// crypto/domain.ErrKeyNotFound.
	Resolve(ctx context.Context, keyID string) (*cryptoDomain.MasterKey, error)

	// ActiveForScope returns the single active key for an owner scope, or
	// crypto/domain.ErrKeyNotFound when the scope has none.
	ActiveForScope(ctx context.Context, scope string) (*cryptoDomain.MasterKey, error)
}

// EnvelopeCipher performs the cryptographic half of envelope encryption.
//
// Implemented by crypto/service.EnvelopeCipherService. All methods are
// stateless and safe for concurrent use.
type EnvelopeCipher interface {
	// GenerateDEK returns a fresh random 256-bit data encryption key.
	GenerateDEK() ([]byte, error)

	// WrapKey encrypts a DEK under a master key, returning the wrapped DEK,
	// the wrap nonce and the wrap tag as separate values.
	WrapKey(dek []byte, kek *cryptoDomain.MasterKey, aad []byte) (wrapped, nonce, tag []byte, err error)

	// UnwrapKey recovers a plaintext DEK from its wrapped form.
	UnwrapKey(wrapped, nonce, tag []byte, kek *cryptoDomain.MasterKey, aad []byte) ([]byte, error)

	// EncryptPayload encrypts plaintext with a DEK, returning the
	// ciphertext, nonce and tag as separate values.
	EncryptPayload(plaintext, dek []byte, alg cryptoDomain.Algorithm, aad []byte) (ciphertext, nonce, tag []byte, err error)

	// DecryptPayload decrypts ciphertext with a DEK after verifying the tag.
	DecryptPayload(ciphertext, nonce, tag, dek []byte, alg cryptoDomain.Algorithm, aad []byte) ([]byte, error)
}

// Sanitizer redacts high-risk fields from payloads before encryption.
//
// Implemented by privacy/service.PayloadSanitizer. Sanitization is lossy and
// one-directional; inputs are never mutated.
type Sanitizer interface {
	// PseudonymizeID maps a raw user identifier to a deterministic one-way
	// pseudonym.
	PseudonymizeID(id string) string

	// SanitizeSession deep-copies a workout session, pseudonymizing user
	// identifiers and removing free-text fields at every nesting level.
	SanitizeSession(session map[string]any) map[string]any

	// SanitizePoseFrame deep-copies a pose frame, coarsening timestamps to
	// one-second granularity and dropping facial landmarks.
	SanitizePoseFrame(frame map[string]any) map[string]any
}

// EnvelopeUseCase defines the envelope encryption operations exposed to
// callers.
//
// Callers are trusted to have authenticated the user already; the userID
// parameter is the verified identity, and every envelope binds it as
// associated data.
type EnvelopeUseCase interface {
	// EncryptForUser encrypts plaintext for the given user.
	//
	// When keyID is empty, the user's active master key is selected,
	// falling back to the default scope key when the user has none. An
	// explicit keyID must reference a key owned by the user (or the default
	// scope); selecting another user's key fails with ErrIdentityMismatch
	// and selecting a deprecated key fails with ErrKeyNotEligible.
	//
	// Returns the completed envelope. The caller owns it from here;
	// the use case holds no reference after the call returns.
	EncryptForUser(ctx context.Context, plaintext []byte, userID, keyID string) (*envelopeDomain.Envelope, error)

	// DecryptForUser authenticates and decrypts an envelope for the given
	// user.
	//
	// The envelope is structurally validated first, then the caller identity
	// is compared against the bound associated data in constant time;
	// a mismatch fails with ErrIdentityMismatch before any cryptographic
	// work. Authentication failures are opaque: ErrAuthenticationFailure
	// never reveals which field failed to verify.
	DecryptForUser(ctx context.Context, env *envelopeDomain.Envelope, userID string) ([]byte, error)

	// EncryptUserData JSON-serializes a value and encrypts it for the user.
	EncryptUserData(ctx context.Context, v any, userID string) (*envelopeDomain.Envelope, error)

	// DecryptUserData decrypts an envelope and JSON-deserializes the
	// plaintext into dst.
	DecryptUserData(ctx context.Context, env *envelopeDomain.Envelope, userID string, dst any) error

	// EncryptSessionData sanitizes a workout session payload and encrypts
	// the sanitized form. The raw session is never encrypted.
	EncryptSessionData(ctx context.Context, session map[string]any, userID string) (*envelopeDomain.Envelope, error)

	// EncryptPoseData sanitizes a pose frame payload and encrypts the
	// sanitized form. The raw frame is never encrypted.
	EncryptPoseData(ctx context.Context, frame map[string]any, userID string) (*envelopeDomain.Envelope, error)

	// HealthCheck round-trips a probe payload through encrypt and decrypt
	// under the default key. It never panics and never returns an error:
	// any failure is logged and reported as false.
	HealthCheck(ctx context.Context) bool
}
